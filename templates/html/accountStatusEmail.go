package templates

import "fmt"

// RenderAccountStatusEmail generates the HTML body for the email a ranger
// receives when an administrator enables or disables their account. Status is
// the human-readable label ("enabled" or "disabled").
func RenderAccountStatusEmail(status, adminEmail string) string {
	body := fmt.Sprintf(
		"Your ranger account has been %s.\n\nIf you believe this was done in error, contact your administrator at %s.",
		status, adminEmail,
	)
	return RenderGenericEmail("Ranger Account Update", body)
}
