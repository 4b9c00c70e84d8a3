package port

type LoginRequest struct {
	ServerUrl       string `json:"serverUrl" doc:"Seeq server base URL"`
	AccessKey       string `json:"accessKey" doc:"Access key or username"`
	Password        string `json:"password"`
	AuthProvider    string `json:"authProvider,omitempty" doc:"Defaults to Seeq"`
	IgnoreSslErrors bool   `json:"ignoreSslErrors,omitempty"`
}

type LoginResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	User      string `json:"user,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty" doc:"RFC 3339, set on success"`
}

type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	ServerUrl     string `json:"serverUrl,omitempty"`
	AuthProvider  string `json:"authProvider,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type TestConnectionRequest struct {
	ServerUrl       string `json:"serverUrl" doc:"Seeq server base URL"`
	IgnoreSslErrors bool   `json:"ignoreSslErrors,omitempty"`
}

type ServerInfo struct {
	ServerUrl string `json:"serverUrl"`
	Version   string `json:"version"`
}
