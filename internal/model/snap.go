package model

// RepoSnap is the observable state of one repository at one evaluation instant.
type RepoSnap struct {
	Ahead  int    `yaml:"ahead"`
	Behind int    `yaml:"behind"`
	Dirty  bool   `yaml:"dirty"`
	Commit string `yaml:"commit"`
}

// ShortCommit returns the first seven characters of the commit id.
func (s RepoSnap) ShortCommit() string {
	return ShortHash(s.Commit)
}

// HeadInfo carries the head fields used to label effects.
type HeadInfo struct {
	Branch   string `yaml:"branch,omitempty"`
	Upstream string `yaml:"upstream,omitempty"`
	Ahead    int    `yaml:"ahead"`
	Behind   int    `yaml:"behind"`
	Commit   string `yaml:"commit,omitempty"`
}

func ShortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
