// Package registry implements the property registry of component D:
// a static index of code maps and commands built once at process
// init, keyed by response prefix (for the dispatcher), by command
// name (for the facade), and by map type (for introspection).
package registry

import (
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
)

// Command describes one named operation the facade can issue: the
// per-zone wire command string, an optional expected response prefix,
// and dispatch flags.
type Command struct {
	Name            string
	AVRCommands     map[model.Zone]string
	AVRResponses    map[model.Zone]string
	IsQueryCommand  bool
	WaitForResponse bool
	RetryOnFail     bool
	Map             codemap.CodeMap
}

// GetAVRCommand resolves the wire command for zone, falling back to
// Z1 then ALL as the reference implementation does, and prepending
// "?" for query commands.
func (c *Command) GetAVRCommand(zone model.Zone) (string, bool) {
	cmd, ok := c.lookupZoned(c.AVRCommands, zone)
	if !ok {
		return "", false
	}
	if c.IsQueryCommand {
		cmd = "?" + cmd
	}
	return cmd, true
}

// GetAVRResponse resolves the expected response prefix for zone, if
// the command declares one.
func (c *Command) GetAVRResponse(zone model.Zone) (string, bool) {
	if resp, ok := c.lookupZoned(c.AVRResponses, zone); ok {
		return resp, true
	}
	return c.lookupZoned(c.AVRCommands, zone)
}

func (c *Command) lookupZoned(m map[model.Zone]string, zone model.Zone) (string, bool) {
	if v, ok := m[zone]; ok {
		return v, true
	}
	if v, ok := m[model.Z1]; ok {
		return v, true
	}
	if v, ok := m[model.ALL]; ok {
		return v, true
	}
	return "", false
}

// PropertyEntry bundles a code map with the per-zone AVR command and
// response prefix it is reachable by, plus any auto-generated or
// auxiliary commands.
type PropertyEntry struct {
	Map            codemap.CodeMap
	Zone           model.Zone
	ResponsePrefix string
	Commands       []*Command
}

type responseEntry struct {
	prefix string
	mp     codemap.CodeMap
	zone   model.Zone
}

// Registry is the process-wide static index built from property
// entries at init time.
type Registry struct {
	mu        sync.RWMutex
	responses []responseEntry
	commands  map[string]*Command
	bySubtype map[string][]*PropertyEntry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		commands:  make(map[string]*Command),
		bySubtype: make(map[string][]*PropertyEntry),
	}
}

// Register adds entry's response prefix, commands, and subclass index
// entries to the registry. A duplicate command name logs a warning and
// keeps the first registration.
func (r *Registry) Register(entry *PropertyEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ResponsePrefix != "" && entry.Map != nil {
		r.responses = append(r.responses, responseEntry{
			prefix: entry.ResponsePrefix,
			mp:     entry.Map,
			zone:   entry.Zone,
		})
	}

	for _, cmd := range entry.Commands {
		if _, dup := r.commands[cmd.Name]; dup {
			slog.Warn("registry: duplicate command name, keeping first registration", "name", cmd.Name)
			continue
		}
		r.commands[cmd.Name] = cmd
	}

	if entry.Map != nil {
		typeName := reflect.TypeOf(entry.Map).String()
		r.bySubtype[typeName] = append(r.bySubtype[typeName], entry)
	}
}

// MatchResponse finds the longest registered prefix that is also a
// proper match for frame (e.g. "Z2MUT" must not be shadowed by "MUT"),
// per §4.D/§4.G.
func (r *Registry) MatchResponse(frame string) (prefix string, mp codemap.CodeMap, zone model.Zone, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bestLen := -1
	for _, re := range r.responses {
		if strings.HasPrefix(frame, re.prefix) && len(re.prefix) > bestLen {
			bestLen = len(re.prefix)
			prefix, mp, zone, ok = re.prefix, re.mp, re.zone, true
		}
	}
	return
}

// GetCommand looks up a command by name, returning an
// UnknownCommand error if absent.
func (r *Registry) GetCommand(name string, zone model.Zone) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	if !ok {
		return nil, avrerr.NewUnknownCommand(name, string(zone))
	}
	return cmd, nil
}

// GetCommands returns commands whose name has the given prefix
// (prefix == "" matches all), optionally filtered to those that
// declare a wire command for zone.
func (r *Registry) GetCommands(prefix string, zone model.Zone) []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Command
	for name, cmd := range r.commands {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if zone != "" {
			if _, ok := cmd.AVRCommands[zone]; !ok {
				if _, ok := cmd.AVRCommands[model.Z1]; !ok {
					continue
				}
			}
		}
		out = append(out, cmd)
	}
	return out
}

// GetCodeMaps returns the entries registered under the given map
// Go type name (e.g. "codemap.NumberMap"), optionally filtered by
// zone.
func (r *Registry) GetCodeMaps(subtype string, zone model.Zone) []*PropertyEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.bySubtype[subtype]
	if zone == "" {
		return append([]*PropertyEntry{}, entries...)
	}
	var out []*PropertyEntry
	for _, e := range entries {
		if e.Zone == zone || e.Zone == model.ALL {
			out = append(out, e)
		}
	}
	return out
}

// MustRegister is a convenience for package-init assembly that panics
// on a nil entry, matching the reference implementation's fail-fast
// table construction.
func (r *Registry) MustRegister(entry *PropertyEntry) {
	if entry == nil {
		panic("registry: nil property entry")
	}
	r.Register(entry)
}
