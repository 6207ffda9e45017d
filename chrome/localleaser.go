package chrome

import (
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/wirepair/gcd"
)

// LocalLeaser starts engine processes on this machine, one temporary
// profile and random debugger port per instance
type LocalLeaser struct {
	browserLock    sync.RWMutex
	browsers       map[string]*gcd.Gcd
	browserTimeout time.Duration
	tmp            string
	binary         string
	extraFlags     []string
}

// NewLocalLeaser for engine processes
func NewLocalLeaser() *LocalLeaser {
	s := &LocalLeaser{
		browserLock:    sync.RWMutex{},
		browserTimeout: time.Second * 30,
		browsers:       make(map[string]*gcd.Gcd),
	}
	return s
}

// SetBinary overrides engine binary discovery
func (s *LocalLeaser) SetBinary(path string) {
	s.binary = path
}

// SetExtraFlags appended to the startup flag set
func (s *LocalLeaser) SetExtraFlags(flags []string) {
	s.extraFlags = flags
}

// Acquire starts a new engine process and returns its debugger port
func (s *LocalLeaser) Acquire() (string, error) {
	b := gcd.NewChromeDebugger()
	b.DeleteProfileOnExit()

	chrome, tmp := FindChrome()
	if s.binary != "" {
		chrome = s.binary
	}
	profileDir := randProfile(tmp)
	s.tmp = tmp
	port := randPort()

	b.AddFlags(startupFlags)
	if len(s.extraFlags) > 0 {
		b.AddFlags(s.extraFlags)
	}
	if err := b.StartProcess(chrome, profileDir, port); err != nil {
		return "", err
	}
	s.browserLock.Lock()
	s.browsers[port] = b
	s.browserLock.Unlock()

	return string(port), nil
}

// Count of running instances
func (s *LocalLeaser) Count() (string, error) {
	s.browserLock.RLock()
	count := len(s.browsers)
	s.browserLock.RUnlock()
	return strconv.Itoa(count), nil
}

// Return stops the instance on port
func (s *LocalLeaser) Return(port string) error {
	s.browserLock.Lock()
	defer s.browserLock.Unlock()

	if b, ok := s.browsers[port]; ok {
		if err := b.ExitProcess(); err != nil {
			return err
		}
		delete(s.browsers, port)
		return nil
	}

	return errors.New("not found")
}

// Cleanup stray processes and temporary profiles
func (s *LocalLeaser) Cleanup() (string, error) {
	if err := KillOldProcesses(); err != nil {
		return "", err
	}

	if err := RemoveTmpContents(s.tmp); err != nil {
		return "", err
	}
	return "ok", nil
}
