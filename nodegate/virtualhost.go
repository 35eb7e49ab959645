package nodegate

import "strings"

// MappedService is the result of routing a request path within a
// VirtualHost (spec.md §3 "MappedService"). Present is false when nothing
// matched; in that case the other fields are meaningless.
type MappedService struct {
	Present    bool
	MappedPath string
	Codec      ServiceCodec
	Handler    ServiceHandler
}

// VirtualHost routes a request path to a MappedService (spec.md §6:
// "VirtualHost::find_service(path) -> MappedService"). This is an external
// collaborator interface; nodegate never implements request handling
// itself, only dispatches to it.
type VirtualHost interface {
	FindService(path string) MappedService
}

// VirtualHostRegistry selects a VirtualHost by hostname, falling back to a
// default host when nothing matches (spec.md §6:
// "ServerConfig::find_virtual_host(hostname) -> VirtualHost; falls back to
// a default host when no match").
type VirtualHostRegistry interface {
	FindVirtualHost(hostname string) VirtualHost
}

// hostnameMatch pairs a hostname pattern with the VirtualHost it resolves
// to, mirroring the teacher's hostnameTo[T] (web_server.go, rpc_hrpc_server.go).
type hostnameMatch struct {
	hostname string
	target   VirtualHost
}

// Registry is a ready-to-use VirtualHostRegistry matching hostnames by
// exact, suffix ("*.example.com"), or prefix ("www.example.*") pattern, the
// same three-tier scheme the teacher uses for both webapps (web_server.go
// findWebapp) and RPC services (rpc_hrpc_server.go findService).
type Registry struct {
	exact       []hostnameMatch
	suffix      []hostnameMatch // hostname field holds the suffix, e.g. ".example.com"
	prefix      []hostnameMatch // hostname field holds the prefix, e.g. "www.example."
	defaultHost VirtualHost
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddExact maps an exact hostname, e.g. "example.com".
func (r *Registry) AddExact(hostname string, vh VirtualHost) {
	r.exact = append(r.exact, hostnameMatch{hostname, vh})
}

// AddSuffix maps a suffix pattern; suffix should already include the
// leading dot, e.g. ".example.com" to match "api.example.com".
func (r *Registry) AddSuffix(suffix string, vh VirtualHost) {
	r.suffix = append(r.suffix, hostnameMatch{suffix, vh})
}

// AddPrefix maps a prefix pattern; prefix should already include the
// trailing dot, e.g. "www.example." to match "www.example.org".
func (r *Registry) AddPrefix(prefix string, vh VirtualHost) {
	r.prefix = append(r.prefix, hostnameMatch{prefix, vh})
}

// SetDefault sets the VirtualHost used when no pattern matches. An empty
// Host header (spec.md §8: "Empty Host header -> hostname is the empty
// string; must still route to the default virtual host") ends up here too,
// since the empty string matches no exact/suffix/prefix pattern.
func (r *Registry) SetDefault(vh VirtualHost) {
	r.defaultHost = vh
}

// FindVirtualHost implements VirtualHostRegistry.
func (r *Registry) FindVirtualHost(hostname string) VirtualHost {
	for _, m := range r.exact {
		if m.hostname == hostname {
			return m.target
		}
	}
	for _, m := range r.suffix {
		if strings.HasSuffix(hostname, m.hostname) {
			return m.target
		}
	}
	for _, m := range r.prefix {
		if strings.HasPrefix(hostname, m.hostname) {
			return m.target
		}
	}
	return r.defaultHost // may be nil
}

// PathMap is a minimal VirtualHost that routes by exact request path. Real
// deployments plug in their own VirtualHost (rule-based, radix-trie, ...);
// PathMap exists so tests and small programs don't need to.
type PathMap struct {
	routes map[string]MappedService
}

// NewPathMap returns an empty PathMap.
func NewPathMap() *PathMap {
	return &PathMap{routes: make(map[string]MappedService)}
}

// Handle registers a service for an exact path.
func (m *PathMap) Handle(path string, mappedPath string, codec ServiceCodec, handler ServiceHandler) {
	m.routes[path] = MappedService{Present: true, MappedPath: mappedPath, Codec: codec, Handler: handler}
}

// FindService implements VirtualHost.
func (m *PathMap) FindService(path string) MappedService {
	if svc, ok := m.routes[path]; ok {
		return svc
	}
	return MappedService{}
}
