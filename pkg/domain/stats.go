package domain

// Stats is the aggregate summary served by the panel's stats endpoint.
type Stats struct {
	TotalChats      int     `json:"totalChats"`
	TotalUsers      int     `json:"totalUsers"`
	AvgUsersPerChat float64 `json:"avgUsersPerChat"`
}
