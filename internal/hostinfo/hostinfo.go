// Package hostinfo summarizes the host machine for the report header.
package hostinfo

// Summary holds the host identity printed once before the first adapter
// block.
type Summary struct {
	Hostname           string
	OSCaption          string
	OSVersion          string
	OSBuild            string
	Manufacturer       string
	Model              string
	TotalPhysicalBytes uint64
}
