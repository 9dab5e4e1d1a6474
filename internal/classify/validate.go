package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/spicecat/internal/model"
)

var (
	mccPattern      = regexp.MustCompile(`^[0-9]{4}$`)
	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// ValidateRequest rejects requests that must not enter the pipeline.
func ValidateRequest(req model.ClassificationRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return validationFault(req.ID, StageValidate, "transaction id is required")
	}
	if req.MCC != "" && !mccPattern.MatchString(req.MCC) {
		return validationFault(req.ID, StageValidate, fmt.Sprintf("mcc must be 4 digits, got %q", req.MCC))
	}
	if req.Currency != "" && !currencyPattern.MatchString(req.Currency) {
		return validationFault(req.ID, StageValidate, fmt.Sprintf("currency must be a 3-letter code, got %q", req.Currency))
	}
	return nil
}

func validateBatchSize(n, limit int) error {
	if n < 1 || n > limit {
		return validationFault("", StageValidate,
			fmt.Sprintf("bulk request must contain between 1 and %d items, got %d", limit, n))
	}
	return nil
}
