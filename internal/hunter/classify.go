package hunter

import (
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/pkg/errors"
)

// Kind classifies the outcome of one launch attempt.
type Kind int

const (
	// KindCapacity means the zone is out of host capacity. Expected and
	// transient; the loop moves on to the next placement.
	KindCapacity Kind = iota
	// KindQuotaOrLimit means a tenancy quota or service limit was hit.
	// Retrying elsewhere will not help.
	KindQuotaOrLimit
	// KindOther is any unclassified failure, treated as fatal.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindCapacity:
		return "capacity"
	case KindQuotaOrLimit:
		return "quota"
	default:
		return "other"
	}
}

// classifyRules is evaluated in order, so a message mentioning both
// capacity and quota is treated as transient capacity. The provider
// does not publish a stable error-code table for capacity exhaustion,
// which leaves substring matching on the human-readable message as the
// working heuristic; keeping the rules as data makes that fragility
// testable in isolation.
var classifyRules = []struct {
	substrings []string
	kind       Kind
}{
	{[]string{"out of host capacity", "capacity"}, KindCapacity},
	{[]string{"quota", "limit"}, KindQuotaOrLimit},
}

// Classify maps a launch error to a Kind by case-insensitive substring
// matching against the provider's message.
func Classify(err error) Kind {
	msg := strings.ToLower(errorMessage(err))
	for _, rule := range classifyRules {
		for _, sub := range rule.substrings {
			if strings.Contains(msg, sub) {
				return rule.kind
			}
		}
	}
	return KindOther
}

// errorMessage prefers the service error's message over the wrapped
// error chain text.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if serviceErr, ok := common.IsServiceError(errors.Cause(err)); ok {
		return serviceErr.GetMessage()
	}
	return err.Error()
}

// errorCode returns the provider error code when the error is a
// service error, or an empty string.
func errorCode(err error) string {
	if serviceErr, ok := common.IsServiceError(errors.Cause(err)); ok {
		return serviceErr.GetCode()
	}
	return ""
}
