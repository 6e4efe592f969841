// Package cookies produces the throwaway cookie file handed to the
// extraction backend so that consent and bot checks are satisfied.
package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	Domain   = ".youtube.com"
	Lifetime = 2 * 365 * 24 * time.Hour

	header = "# Netscape HTTP Cookie File\n" +
		"# https://curl.se/docs/http-cookies.html\n" +
		"# This file was generated by ytaudio. Do not edit.\n\n"

	tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// ErrWrite is returned when the cookie file cannot be written.
var ErrWrite = errors.New("cookie artifact could not be written")

// Cookie is one row of a Netscape cookie file.
type Cookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           time.Time
	Name              string
	Value             string
}

// Artifact is a cookie file on disk. Close removes it.
type Artifact struct {
	Path      string
	Cookies   []Cookie
	Synthetic bool
}

func (a *Artifact) Close() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Synthesizer writes a fresh cookie file on every call. With an operator blob
// configured the blob is written verbatim, otherwise placeholder cookies are
// generated.
type Synthesizer struct {
	blob string
	dir  string
	now  func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSynthesizer(blob, dir string) *Synthesizer {
	return &Synthesizer{
		blob: blob,
		dir:  dir,
		now:  time.Now,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Synthesizer) Synthesize() (*Artifact, error) {
	if strings.TrimSpace(s.blob) != "" {
		path, err := s.write(s.blob)
		if err != nil {
			return nil, err
		}
		return &Artifact{Path: path}, nil
	}

	jar := s.placeholders()
	path, err := s.write(Format(jar))
	if err != nil {
		return nil, err
	}
	return &Artifact{Path: path, Cookies: jar, Synthetic: true}, nil
}

func (s *Synthesizer) write(content string) (string, error) {
	f, err := os.CreateTemp(s.dir, "ytaudio-cookies-*.txt")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return f.Name(), nil
}

func (s *Synthesizer) placeholders() []Cookie {
	now := s.now()
	expires := now.Add(Lifetime).Truncate(time.Second)

	s.mu.Lock()
	consent := fmt.Sprintf("YES+cb.%s-17-p0.en+FX+%d", now.Format("20060102"), 100+s.rnd.Intn(900))
	visitor := s.token(11)
	ysc := s.token(11)
	s.mu.Unlock()

	mk := func(name, value string) Cookie {
		return Cookie{
			Domain:            Domain,
			IncludeSubdomains: true,
			Path:              "/",
			Secure:            true,
			Expires:           expires,
			Name:              name,
			Value:             value,
		}
	}
	return []Cookie{
		mk("CONSENT", consent),
		mk("SOCS", "CAI"),
		mk("PREF", "f6=40000000&hl=en"),
		mk("VISITOR_INFO1_LIVE", visitor),
		mk("YSC", ysc),
		mk("GPS", "1"),
	}
}

// token must be called with s.mu held.
func (s *Synthesizer) token(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenChars[s.rnd.Intn(len(tokenChars))]
	}
	return string(b)
}

// Format renders cookies in the Netscape cookie-file format.
func Format(jar []Cookie) string {
	var b strings.Builder
	b.WriteString(header)
	for _, c := range jar {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, boolField(c.IncludeSubdomains), c.Path, boolField(c.Secure),
			c.Expires.Unix(), c.Name, c.Value)
	}
	return b.String()
}

func boolField(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// ParseFile reads a Netscape cookie file. Comment and blank lines are
// skipped; "#HttpOnly_" prefixed rows are kept.
func ParseFile(path string) ([]*http.Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []*http.Cookie
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(text, "#HttpOnly_") {
			text = strings.TrimPrefix(text, "#HttpOnly_")
			httpOnly = true
		}
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("cookie file line %d: expected 7 fields, got %d", line, len(fields))
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cookie file line %d: bad expiry %q", line, fields[4])
		}

		c := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expiry > 0 {
			c.Expires = time.Unix(expiry, 0)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
