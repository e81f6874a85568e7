// Package main provides the shadowtrace CLI.
//
// shadowtrace takes emails and usernames, derives plausible handles, checks a
// table of public profile sites for them and reports what it found.
//
// Usage:
//
//	shadowtrace scan alice@example.com
//	shadowtrace scan --json alice_dev bob
//	echo "alice@example.com" | shadowtrace scan --markdown -o report.md
//	shadowtrace serve --listen :3001
package main

func main() {
	Execute()
}
