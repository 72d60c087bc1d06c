package models

// Dashboard is the per-user summary served on the home screen
type Dashboard struct {
	PendingRequests     int                `json:"pendingRequests"`
	ActiveRelationships int                `json:"activeRelationships"`
	UpcomingSessions    []MentoringSession `json:"upcomingSessions"`
	UnreadNotifications int                `json:"unreadNotifications"`
}
