package capture

import (
	"bufio"
	"image"
	"strconv"
	"strings"
)

// window is a top-level window reported by the platform window manager.
type window struct {
	Key    string
	Title  string
	Bounds image.Rectangle
}

// parseWmctrl parses `wmctrl -lG` output:
//
//	0x03a00007  0 1920 0    1280 720  host Title with spaces
func parseWmctrl(out string) []window {
	var wins []window
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 8 {
			continue
		}
		// desktop -1 marks sticky panels and docks
		if fields[1] == "-1" {
			continue
		}
		x, errX := strconv.Atoi(fields[2])
		y, errY := strconv.Atoi(fields[3])
		w, errW := strconv.Atoi(fields[4])
		h, errH := strconv.Atoi(fields[5])
		if errX != nil || errY != nil || errW != nil || errH != nil || w <= 0 || h <= 0 {
			continue
		}
		wins = append(wins, window{
			Key:    fields[0],
			Title:  strings.Join(fields[7:], " "),
			Bounds: image.Rect(x, y, x+w, y+h),
		})
	}
	return wins
}

// parseProcessWindows parses "<pid>\t<title>" lines emitted by the
// PowerShell window listing.
func parseProcessWindows(out string) []window {
	var wins []window
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		pid, title, ok := strings.Cut(strings.TrimRight(sc.Text(), "\r"), "\t")
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(pid)); err != nil {
			continue
		}
		wins = append(wins, window{Key: strings.TrimSpace(pid), Title: title})
	}
	return wins
}
