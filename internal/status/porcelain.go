// internal/status/porcelain.go
package status

import (
	"strconv"
	"strings"

	"github.com/jackchuka/gitfx/internal/model"
)

func parsePorcelainV2(output string) (*model.RepoStatus, error) {
	status := &model.RepoStatus{}

	lines := strings.Split(output, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}

		// Header lines start with #
		if strings.HasPrefix(line, "# ") {
			parseHeaderLine(line, status)
			continue
		}

		switch line[0] {
		case '1':
			// 1 XY sub mH mI mW hH hI path
			parseChangeLine(line, 9, status)
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path<TAB>origPath
			parseChangeLine(line, 10, status)
		case 'u':
			// u XY sub m1 m2 m3 mW h1 h2 h3 path
			if fields := strings.SplitN(line, " ", 11); len(fields) == 11 {
				status.Merge = append(status.Merge, model.FileChange{Path: fields[10], Code: fields[1]})
			}
		case '?':
			status.WorkingTree = append(status.WorkingTree, model.FileChange{Path: strings.TrimPrefix(line, "? "), Code: "??"})
		case '!':
			// Ignored files (we don't track these)
		}
	}

	return status, nil
}

func parseHeaderLine(line string, status *model.RepoStatus) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return
	}

	key := parts[1]
	value := parts[2]

	switch key {
	case "branch.oid":
		if value != "(initial)" {
			status.Commit = value
		}
	case "branch.head":
		if value == "(detached)" {
			status.DetachedHead = true
		} else {
			status.Branch = value
		}
	case "branch.upstream":
		status.Upstream = value
	case "branch.ab":
		// Parse "+N -M"
		abParts := strings.Fields(value)
		for _, p := range abParts {
			if strings.HasPrefix(p, "+") {
				status.Ahead, _ = strconv.Atoi(p[1:])
			} else if strings.HasPrefix(p, "-") {
				status.Behind, _ = strconv.Atoi(p[1:])
			}
		}
	}
}

func parseChangeLine(line string, nfields int, status *model.RepoStatus) {
	fields := strings.SplitN(line, " ", nfields)
	if len(fields) < nfields || len(fields[1]) != 2 {
		return
	}

	xy := fields[1]
	path := fields[nfields-1]
	// Renames carry the original path after a tab
	if i := strings.IndexByte(path, '\t'); i != -1 {
		path = path[:i]
	}
	change := model.FileChange{Path: path, Code: xy}

	// X = index status, Y = worktree status
	if xy[0] != '.' {
		status.Index = append(status.Index, change)
	}
	if xy[1] != '.' {
		status.WorkingTree = append(status.WorkingTree, change)
	}
}
