package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckScanRoot verifies that the scan root exists and is readable. A
// regular file is accepted so single-file scans pass preflight.
func CheckScanRoot(path string) Result {
	const name = "Scan root"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	mode := unix.R_OK
	if info.IsDir() {
		mode |= unix.X_OK
	}
	if err := unix.Access(path, uint32(mode)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckOutputRoot verifies that the output directory exists (creating it
// when missing) and is writable.
func CheckOutputRoot(path string) Result {
	const name = "Output directory"

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minGiB gibibytes available.
func CheckFreeSpace(path string, minGiB float64) Result {
	const name = "Free space"

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}

	availGiB := float64(stat.Bavail) * float64(stat.Bsize) / (1 << 30)
	if availGiB < minGiB {
		return Result{Name: name, Detail: fmt.Sprintf("%.1f GiB available, %.1f GiB required", availGiB, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB available", availGiB)}
}
