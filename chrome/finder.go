package chrome

import "runtime"

// FindChrome on the FS
func FindChrome() (string, string) {
	switch runtime.GOOS {
	case "windows":
		return "C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe", "C:\\Temp\\offview\\"
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", "/tmp/offview/"
	case "linux":
		return "/usr/bin/chromium-browser", "/tmp/offview/"
	}
	return "", "tmp"
}

// FindKill based on OS
func FindKill(browser string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"taskkill", "/IM", browser + ".exe"}
	case "darwin", "linux":
		return []string{"killall", browser}
	}
	return []string{""}
}
