package service

const (
	snapshotKeyPrefix = "taskTrackerApp_v1_"
	authStorageKey    = "taskTracker_auth"
	apiKeyStorageKey  = "taskTracker_googleApiKey"

	GuestNamespace = "guest"
)

// Namespace selects one snapshot inside a browser profile's local storage:
// the signed-in user's, or the guest one.
type Namespace struct {
	ProfileID string
	UserID    string
}

func (n Namespace) Name() string {
	if n.UserID == "" {
		return GuestNamespace
	}
	return n.UserID
}

func (n Namespace) StorageKey() string {
	return snapshotKeyPrefix + n.Name()
}

func (n Namespace) String() string {
	return n.ProfileID + "/" + n.Name()
}
