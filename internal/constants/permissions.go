package constants

const (
	CheckInGuests  = "check_in_guests"
	ViewGuests     = "view_guests"
	ManageGuests   = "manage_guests"
	ManageDrops    = "manage_drops"
	ManageInvites  = "manage_invites"
	ManageMedia    = "manage_media"
	ViewAnalytics  = "view_analytics"
	ManageSettings = "manage_settings"
	ViewLiveFeed   = "view_live_feed"
)
