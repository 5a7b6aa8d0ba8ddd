// Package authlog finds the sources of failed logins in system auth logs.
package authlog

import (
	"bufio"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"adminctl/logger"
)

var (
	patterns = []string{
		"failed password",
		"authentication failure",
		"invalid user",
		"failed login",
		"login incorrect",
	}

	addressPattern = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
)

type Source struct {
	Address  string
	Attempts int
}

// Scan reads every file in paths and counts failed login lines per source
// address. Lines without a dotted quad are ignored. Files that are missing or
// unreadable are skipped. Sources are ordered by attempts, most first.
func Scan(paths []string) ([]Source, error) {
	counts := make(map[string]int)
	for _, path := range paths {
		if err := scanFile(path, counts); err != nil {
			logger.Warn("skipping auth log", zap.String("file", path), zap.Error(err))
		}
	}

	result := lo.MapToSlice(counts, func(addr string, n int) Source {
		return Source{Address: addr, Attempts: n}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Attempts != result[j].Attempts {
			return result[i].Attempts > result[j].Attempts
		}
		return result[i].Address < result[j].Address
	})
	return result, nil
}

// Addresses returns the address of each source, keeping the order.
func Addresses(sources []Source) []string {
	return lo.Map(sources, func(s Source, _ int) string {
		return s.Address
	})
}

func scanFile(path string, counts map[string]int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !isFailure(line) {
			continue
		}
		if addr := addressPattern.FindString(line); addr != "" {
			counts[addr]++
		}
	}
	return scanner.Err()
}

func isFailure(line string) bool {
	lower := strings.ToLower(line)
	return lo.ContainsBy(patterns, func(p string) bool {
		return strings.Contains(lower, p)
	})
}
