package ffmpegsource

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// showinfoLine matches the per-frame lines of ffmpeg's showinfo filter, e.g.
// "[Parsed_showinfo_0 @ 0x55d1] n:   3 pts:   1536 pts_time:0.1 ..."
var showinfoLine = regexp.MustCompile(`\bn:\s*(\d+)\s+pts:\s*(-?\d+)`)

// parseShowinfo extracts the frame number and pts from a showinfo line.
func parseShowinfo(line string) (n int, pts int64, ok bool) {
	m := showinfoLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	pts, err = strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return n, pts, true
}

// stderrLog collects frame timestamps and the tail of other diagnostics
// from the decoder's stderr.
type stderrLog struct {
	mu   sync.Mutex
	pts  map[int]int64
	next int // lowest frame number not yet taken
	tail []string
	max  int
}

func newStderrLog(maxTail int) *stderrLog {
	return &stderrLog{pts: make(map[int]int64), max: maxTail}
}

// consume reads r until EOF.
func (l *stderrLog) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if n, pts, ok := parseShowinfo(line); ok {
			l.mu.Lock()
			if n >= l.next {
				l.pts[n] = pts
			}
			l.mu.Unlock()
			continue
		}
		if strings.Contains(line, "Parsed_showinfo") {
			continue
		}
		l.mu.Lock()
		l.tail = append(l.tail, line)
		if len(l.tail) > l.max {
			l.tail = l.tail[len(l.tail)-l.max:]
		}
		l.mu.Unlock()
	}
	return scanner.Err()
}

// take returns the pts of frame n and forgets every frame up to n.
// Lines for those frames that arrive later are dropped.
func (l *stderrLog) take(n int) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pts, ok := l.pts[n]
	for k := range l.pts {
		if k <= n {
			delete(l.pts, k)
		}
	}
	l.next = max(l.next, n+1)
	return pts, ok
}

// pending returns the number of stored timestamps.
func (l *stderrLog) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pts)
}

// String returns the collected diagnostics.
func (l *stderrLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.tail, "\n")
}
