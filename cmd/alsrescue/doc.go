// Command alsrescue scans directory trees for Ableton Live project files
// and copies recovered matches into a mirrored output layout. It also
// records every run in a local manifest so past recoveries can be reviewed
// with the report subcommand.
package main
