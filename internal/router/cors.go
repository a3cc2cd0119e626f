package router

import (
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may call the API.
type OriginPolicy struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewOriginPolicy builds a policy from an exact allow-list and platform host suffixes.
func NewOriginPolicy(origins, suffixes []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		p.exact[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	for _, s := range suffixes {
		s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".")
		if s != "" {
			p.suffixes = append(p.suffixes, s)
		}
	}
	return p
}

// Allow matches the signature of echo's CORSConfig.AllowOriginFunc.
// Suffix matches require https and a whole DNS label boundary.
func (p *OriginPolicy) Allow(origin string) (bool, error) {
	if origin == "" {
		return false, nil
	}
	if _, ok := p.exact[origin]; ok {
		return true, nil
	}
	if len(p.suffixes) == 0 {
		return false, nil
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Hostname() == "" {
		return false, nil
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range p.suffixes {
		if strings.HasSuffix(host, "."+s) {
			return true, nil
		}
	}
	return false, nil
}
