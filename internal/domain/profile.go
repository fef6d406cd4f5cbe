package domain

// NotificationSettings three independent toggles for outbound notifications.
type NotificationSettings struct {
	UserRegistered   bool `json:"userRegistered"`
	TenantRegistered bool `json:"tenantRegistered"`
	CameraEvents     bool `json:"cameraEvents"`
}

// Profile is the authenticated console user. The JSON shape is the
// persistence contract: the profile is stored as one JSON blob under a
// fixed key and restored verbatim on session restore.
type Profile struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Avatar        string               `json:"avatar,omitempty"`
	Notifications NotificationSettings `json:"notifications"`
}

// DefaultProfile is the demo profile issued by the stub credential verifier.
func DefaultProfile() Profile {
	return Profile{
		ID:     "1",
		Name:   "John Doe",
		Email:  "john.doe@example.com",
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=john",
		Notifications: NotificationSettings{
			UserRegistered:   true,
			TenantRegistered: true,
			CameraEvents:     true,
		},
	}
}
