// version.go
package version

import "fmt"

// AppName holds the name of the library
var AppName = "go-scanner-http-client"

// Version holds the current version of the library
var Version = "0.3.1"

// GetAppName returns the name of the library
func GetAppName() string {
	return AppName
}

// GetVersion returns the current version of the library
func GetVersion() string {
	return Version
}

// UserAgent returns the default User-Agent header value sent with outbound requests
// when no user agent has been configured.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, Version)
}
