// Package serialization renders option maps and run inputs for logs and notifications,
// masking sensitive values such as passwords passed to encrypt/decrypt operations.
package serialization

import (
	"encoding/json"
	"strings"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// MaskValue replaces the value of a masked key.
const MaskValue = "********"

// MaskOptions returns a shallow copy of options with the values of maskedKeys replaced.
// Key comparison is case-insensitive. Nested maps are masked recursively.
func MaskOptions(options map[string]interface{}, maskedKeys []string) map[string]interface{} {
	if len(options) == 0 {
		return map[string]interface{}{}
	}
	masked := make(map[string]interface{}, len(options))
	for k, v := range options {
		if isMaskedKey(k, maskedKeys) {
			masked[k] = MaskValue
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			masked[k] = MaskOptions(nested, maskedKeys)
			continue
		}
		masked[k] = v
	}
	return masked
}

func isMaskedKey(key string, maskedKeys []string) bool {
	for _, m := range maskedKeys {
		if strings.EqualFold(key, m) {
			return true
		}
	}
	return false
}

// MarshalMasked serializes options to JSON after masking.
func MarshalMasked(options map[string]interface{}, maskedKeys []string) ([]byte, error) {
	data, err := json.Marshal(MaskOptions(options, maskedKeys))
	if err != nil {
		logger.Errorf("Failed to serialize options: %v", err)
		return nil, exception.NewOrchestrationError("serialization", exception.CodeProcessing, "failed to serialize options", err)
	}
	return data, nil
}

// MaskedString is MarshalMasked for log lines; it never fails.
func MaskedString(options map[string]interface{}, maskedKeys []string) string {
	data, err := MarshalMasked(options, maskedKeys)
	if err != nil {
		return "{}"
	}
	return string(data)
}
