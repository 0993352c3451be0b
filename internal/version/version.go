// Package version holds the build version reported by the player.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/AaronLay10/SentientStage/internal/version.Version=x.y.z" ./cmd/sceneplayer
var Version = "0.1.0"

// Name identifies the service in health checks and logs.
const Name = "sceneplayer"
