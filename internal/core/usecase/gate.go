package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const bytesPerMB = 1024 * 1024

// checkExtension returns a rejection message when file fails the rule's allow-list.
func checkExtension(rule domain.DocumentTypeRule, file domain.UploadedFile) (string, bool) {
	if rule.AllowsExtension(file.Extension) {
		return "", true
	}
	return fmt.Sprintf("File type not allowed: %s (allowed: %s)",
		file.Name, strings.Join(rule.AllowedExtensions, ", ")), false
}

// checkAggregateSize compares the whole batch against the rule's cap.
func checkAggregateSize(rule domain.DocumentTypeRule, totalBytes int64) (string, bool) {
	if rule.MaxAggregateSizeMB <= 0 {
		return "", true
	}
	totalMB := float64(totalBytes) / bytesPerMB
	if totalMB <= rule.MaxAggregateSizeMB {
		return "", true
	}
	return fmt.Sprintf("Total file size %sMB exceeds the limit of %sMB",
		strconv.FormatFloat(totalMB, 'f', 2, 64),
		strconv.FormatFloat(rule.MaxAggregateSizeMB, 'f', -1, 64)), false
}
