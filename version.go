package quire

// Version is overridden at build time with -ldflags "-X github.com/aretw0/quire.Version=...".
var Version = "dev"
