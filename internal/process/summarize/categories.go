package summarize

// category holds the display name and description for a known complaint
// pattern.
type category struct {
	pattern     string
	name        string
	description string
}

// Pattern order matters: the first match against the top keywords wins.
var categories = []category{
	{"crash", "App Crashes", "Issues related to app crashes and instability"},
	{"bug", "Bug Reports", "Various bugs and software defects reported by users"},
	{"slow", "Performance Issues", "Complaints about slow performance and responsiveness"},
	{"battery", "Battery Drain", "Issues with excessive battery consumption"},
	{"login", "Authentication Problems", "Difficulties with login and account access"},
	{"sync", "Synchronization Issues", "Problems with data syncing across devices"},
	{"notification", "Notification Problems", "Issues with push notifications and alerts"},
	{"interface", "User Interface Issues", "Problems with app design and usability"},
	{"feature", "Missing Features", "Requests for missing or desired functionality"},
	{"ads", "Advertisement Issues", "Complaints about ads and monetization"},
	{"payment", "Payment Problems", "Issues with purchases and billing"},
	{"update", "Update Issues", "Problems after app updates"},
	{"loading", "Loading Problems", "Issues with content loading and connectivity"},
	{"account", "Account Issues", "Problems with user accounts and profiles"},
	{"data", "Data Issues", "Problems with data loss or corruption"},
	{"connection", "Connectivity Issues", "Network and internet connection problems"},
	{"storage", "Storage Problems", "Issues with storage space and memory"},
	{"quality", "Quality Issues", "General quality and reliability concerns"},
}
