package types

type (
	StorageCredentials struct {
		Endpoint    string
		AccessKeyID string
		SecretKey   string
		Region      string
		Bucket      string
		Secure      bool
	}

	// Backup describes one stored dump.
	Backup struct {
		Entity      string
		Location    string
		StorageType string
		Size        int64
	}
)
