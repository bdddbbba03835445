// Package cli is the lip command-line client.
//
// It runs in two ways. With a command on the command line it performs that
// one call and exits:
//
//	lip-cli -s http://home.example:8080 token -id laptop -mode write
//
// Without one it starts an interactive prompt that accepts the same
// commands, one per line, and shows whether the server is reachable.
//
// Commands map one to one onto the server API: create, token, invalidate,
// update, retrieve and delete, plus ping. Passwords that are not passed as
// flags are read from the terminal without echo.
package cli
