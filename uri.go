package salad

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// uriParts is a URI reference split into its five top-level components. No
// percent-decoding happens, so joining the parts restores the input.
type uriParts struct {
	scheme, netloc, path, query, fragment string
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case first:
		return false
	case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
		return true
	}
	return false
}

// splitURI splits raw into components. It fails with ErrMalformedURI for
// control characters and unbalanced IPv6 brackets.
func splitURI(raw string) (uriParts, error) {
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c < 0x20 || c == 0x7f {
			return uriParts{}, fmt.Errorf("%w: control character at offset %d in %q", ErrMalformedURI, i, raw)
		}
	}
	var p uriParts
	rest := raw
	if i := strings.IndexByte(rest, ':'); i > 0 && isSchemeChar(rest[0], true) {
		ok := true
		for j := 1; j < i; j++ {
			if !isSchemeChar(rest[j], false) {
				ok = false
				break
			}
		}
		if ok {
			p.scheme = strings.ToLower(rest[:i])
			rest = rest[i+1:]
		}
	}
	if strings.HasPrefix(rest, "//") {
		end := len(rest)
		if k := strings.IndexAny(rest[2:], "/?#"); k >= 0 {
			end = k + 2
		}
		p.netloc = rest[2:end]
		rest = rest[end:]
		if strings.Contains(p.netloc, "[") != strings.Contains(p.netloc, "]") {
			return uriParts{}, fmt.Errorf("%w: invalid IPv6 host in %q", ErrMalformedURI, raw)
		}
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		p.fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		p.query = rest[i+1:]
		rest = rest[:i]
	}
	p.path = rest
	return p, nil
}

// schemes whose URIs carry an authority component
var netlocSchemes = []string{"", "file", "http", "https", "ftp", "sftp", "ws", "wss", "git", "svn", "svn+ssh", "rsync", "nfs"}

func (p uriParts) String() string {
	out := p.path
	if p.netloc != "" || (p.scheme != "" && slices.Contains(netlocSchemes, p.scheme) && !strings.HasPrefix(out, "//")) {
		if out != "" && out[0] != '/' {
			out = "/" + out
		}
		out = "//" + p.netloc + out
	}
	if p.scheme != "" {
		out = p.scheme + ":" + out
	}
	if p.query != "" {
		out += "?" + p.query
	}
	if p.fragment != "" {
		out += "#" + p.fragment
	}
	return out
}

// URLJoin resolves ref against base following RFC 3986 reference resolution.
// Blank node identifiers ("_:") are returned unchanged, and a file: reference
// is never resolved against a remote base.
func URLJoin(base, ref string) (string, error) {
	if strings.HasPrefix(ref, "_:") {
		return ref, nil
	}
	if base == "" {
		if _, err := splitURI(ref); err != nil {
			return "", err
		}
		return ref, nil
	}
	b, err := splitURI(base)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return base, nil
	}
	r, err := splitURI(ref)
	if err != nil {
		return "", err
	}
	if b.scheme != "" && b.scheme != "file" && r.scheme == "file" {
		return "", Errorf("Not resolving potential remote exploit %s from base %s", ref, base)
	}
	if r.scheme == "" {
		r.scheme = b.scheme
	}
	if r.scheme != b.scheme || !slices.Contains(netlocSchemes, r.scheme) {
		return ref, nil
	}
	if r.netloc != "" {
		return r.String(), nil
	}
	r.netloc = b.netloc
	if r.path == "" {
		r.path = b.path
		if r.query == "" {
			r.query = b.query
		}
		return r.String(), nil
	}

	baseParts := strings.Split(b.path, "/")
	if baseParts[len(baseParts)-1] != "" {
		baseParts = baseParts[:len(baseParts)-1]
	}
	var segments []string
	if strings.HasPrefix(r.path, "/") {
		segments = strings.Split(r.path, "/")
	} else {
		segments = append(slices.Clone(baseParts), strings.Split(r.path, "/")...)
		// drop empty inner segments that would double up slashes
		if len(segments) > 2 {
			inner := slices.DeleteFunc(slices.Clone(segments[1:len(segments)-1]), func(s string) bool { return s == "" })
			segments = append(append([]string{segments[0]}, inner...), segments[len(segments)-1])
		}
	}
	resolved := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		case ".":
		default:
			resolved = append(resolved, seg)
		}
	}
	if last := segments[len(segments)-1]; last == "." || last == ".." {
		resolved = append(resolved, "")
	}
	r.path = strings.Join(resolved, "/")
	if r.path == "" {
		r.path = "/"
	}
	return r.String(), nil
}

// ExpandURL turns a short or relative identifier into its absolute form.
//
// Vocabulary terms (with vocabTerm) and the JSON-LD keywords @id and @type are
// returned as is. A "prefix:" naming a known namespace is substituted. URIs
// with a supported scheme and parameter references ("$(" or "${") pass
// through. Otherwise a scoped identifier is placed under the fragment of
// baseURI, a scoped reference replaces the last scopedRef fragment segments
// of baseURI, and anything else is resolved against baseURI. With vocabTerm an
// absolute result known to the vocabulary is contracted back to its term and
// a result that is not absolute fails validation.
func (o *LoadingOptions) ExpandURL(term, baseURI string, scopedID, vocabTerm bool, scopedRef *int) (string, error) {
	if term == "@id" || term == "@type" {
		return term, nil
	}
	if vocabTerm {
		if _, ok := o.vocab[term]; ok {
			return term, nil
		}
	}
	url := term
	if len(o.vocab) > 0 {
		if prefix, local, ok := strings.Cut(url, ":"); ok {
			if ns, known := o.vocab[prefix]; known {
				url = ns + local
			}
		}
	}

	split, err := splitURI(url)
	if err != nil {
		return "", err
	}
	switch {
	case (split.scheme != "" && o.supportsScheme(split.scheme)) ||
		strings.HasPrefix(url, "$(") || strings.HasPrefix(url, "${"):
	case scopedID && split.fragment == "":
		base, err := splitURI(baseURI)
		if err != nil {
			return "", err
		}
		frg := split.path
		if base.fragment != "" {
			frg = base.fragment + "/" + split.path
		} else if o.container != "" {
			frg = o.container + "/" + split.path
		}
		pt := base.path
		if pt == "" {
			pt = "/"
		}
		url = uriParts{base.scheme, base.netloc, pt, base.query, frg}.String()
	case scopedRef != nil && split.fragment == "":
		base, err := splitURI(baseURI)
		if err != nil {
			return "", err
		}
		sp := strings.Split(base.fragment, "/")
		for n := *scopedRef; n > 0 && len(sp) > 0; n-- {
			sp = sp[:len(sp)-1]
		}
		sp = append(sp, url)
		url = uriParts{base.scheme, base.netloc, base.path, base.query, strings.Join(sp, "/")}.String()
	default:
		url, err = o.urlJoin(baseURI, url)
		if err != nil {
			return "", err
		}
	}

	if vocabTerm {
		split, err := splitURI(url)
		if err != nil {
			return "", err
		}
		if split.scheme == "" {
			return "", Coded(CodeUnknownTerm, map[string]string{"term": url})
		}
		if t, ok := o.rvocab[url]; ok {
			return t, nil
		}
	}
	return url, nil
}

// ContractURI is the inverse of ExpandURL: it shortens uri relative to
// baseURL. Same-origin URIs on another path become relative paths; URIs on the
// same path become the part of their fragment below the base fragment, after
// dropping refScope trailing segments from the base fragment. Other URIs are
// returned unchanged, as is everything when relativeURIs is false.
func ContractURI(uri, baseURL string, scopedID, relativeURIs bool, refScope int) (string, error) {
	if !relativeURIs || uri == baseURL {
		return uri, nil
	}
	u, err := splitURI(uri)
	if err != nil {
		return "", err
	}
	b, err := splitURI(baseURL)
	if err != nil {
		return "", err
	}
	if u.scheme != b.scheme || u.netloc != b.netloc {
		return uri, nil
	}
	if u.path != b.path {
		dir := dirname(b.path)
		if u.path == "" || dir == "" {
			return "", Coded(CodeRelativeURI, nil)
		}
		p := relPath(u.path, dir)
		if u.fragment != "" {
			p += "#" + u.fragment
		}
		return p, nil
	}

	prefix := ""
	if b.fragment != "" {
		sp := strings.Split(b.fragment, "/")
		for i := 0; i < refScope && len(sp) > 0; i++ {
			sp = sp[:len(sp)-1]
		}
		if len(sp) > 0 {
			prefix = strings.Join(sp, "/") + "/"
		}
	}
	if prefix != "" && strings.HasPrefix(u.fragment, prefix) {
		return u.fragment[len(prefix):], nil
	}
	return u.fragment, nil
}

// dirname mirrors POSIX dirname without the "." fallback: a path without a
// slash has no directory.
func dirname(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	head := p[:i+1]
	if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
		return trimmed
	}
	return head
}

// relPath returns target relative to the directory dir. Both are URI paths;
// relative ones are taken to start at the same root.
func relPath(target, dir string) string {
	abs := func(p string) []string {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		var out []string
		for _, s := range strings.Split(path.Clean(p), "/") {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	t, d := abs(target), abs(dir)
	n := 0
	for n < len(t) && n < len(d) && t[n] == d[n] {
		n++
	}
	parts := make([]string, 0, len(d)-n+len(t)-n)
	for range d[n:] {
		parts = append(parts, "..")
	}
	parts = append(parts, t[n:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// Shortname returns the last segment of the fragment of id, or of its path
// when there is no fragment.
func Shortname(id string) string {
	p, err := splitURI(id)
	if err != nil {
		return id
	}
	if p.fragment != "" {
		return p.fragment[strings.LastIndexByte(p.fragment, '/')+1:]
	}
	return p.path[strings.LastIndexByte(p.path, '/')+1:]
}

// FileURI converts a local absolute path into a file:// URI. With splitFrag a
// "#fragment" suffix is kept as the URI fragment.
func FileURI(p string, splitFrag bool) string {
	if strings.HasPrefix(p, "file://") {
		return p
	}
	frag := ""
	if splitFrag {
		if before, after, ok := strings.Cut(p, "#"); ok {
			p = before
			frag = "#" + quote(after, "")
		}
	}
	urlpath := quote(p, "/")
	if strings.HasPrefix(urlpath, "//") {
		return "file:" + urlpath + frag
	}
	return "file://" + urlpath + frag
}

func quote(s, safe string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '_', c == '.', c == '-', c == '~', strings.IndexByte(safe, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}

// PrefixURL shortens url to "prefix:rest" using the longest matching namespace.
func PrefixURL(url string, namespaces map[string]string) string {
	best, bestNS := "", ""
	for k, ns := range namespaces {
		if ns != "" && strings.HasPrefix(url, ns) && (len(ns) > len(bestNS) || (len(ns) == len(bestNS) && k < best)) {
			best, bestNS = k, ns
		}
	}
	if bestNS == "" {
		return url
	}
	return best + ":" + url[len(bestNS):]
}

// Ref returns a pointer to n, for the scopedRef argument of ExpandURL.
func Ref(n int) *int { return &n }
