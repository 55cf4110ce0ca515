package image

import "strings"

// URLs turns stored file names into public URLs.
type URLs struct {
	BaseURL string
}

func (u URLs) URL(dir, name string) string {
	if name == "" || strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return strings.TrimRight(u.BaseURL, "/") + "/" + dir + "/" + name
}

func (u URLs) List(dir string, names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = u.URL(dir, name)
	}
	return out
}
