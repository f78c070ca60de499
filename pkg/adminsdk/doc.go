// Package adminsdk is a small client for the admin authorization service,
// used by the portal backend and by tooling. It also defines the wire
// types the service's HTTP handlers encode to and from.
package adminsdk
