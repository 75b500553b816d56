package mapper

import "shift-exchange-backend/internal/features/user/models"

// ToProfileResponse maps User to its public profile, rendering unset
// fields as null.
func ToProfileResponse(user *models.User) *models.ProfileResponse {
	return &models.ProfileResponse{
		TgID:       user.TgID,
		Username:   nullable(user.Username),
		FullName:   nullable(user.FullName),
		Department: nullable(user.Department),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
