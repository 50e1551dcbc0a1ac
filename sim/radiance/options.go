// Package radiance is the boundary to the Radiance ray-tracer: it serializes
// models into scene files, describes skies, and runs oconv/rtrace as an
// external process through the RayTracer interface.
package radiance

import "strings"

// Option is one ray-tracer parameter. The core never interprets it.
type Option struct {
	Name  string
	Value string
}

// Options is an ordered set of ray-tracer parameters, passed through as
// "-name value" arguments.
type Options struct {
	opts []Option
}

// NewOptions creates an option set from name/value pairs in order.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		o = o.With(opt.Name, opt.Value)
	}
	return o
}

// DefaultOptions returns interior-daylighting settings for rtrace.
func DefaultOptions() Options {
	return NewOptions(
		Option{"ab", "4"},
		Option{"ad", "1024"},
		Option{"as", "512"},
		Option{"ar", "256"},
		Option{"aa", "0.15"},
		Option{"lr", "8"},
		Option{"lw", "0.002"},
	)
}

// With returns a copy of o with name set to value, replacing any earlier value
// while keeping its position.
func (o Options) With(name, value string) Options {
	name = strings.TrimPrefix(name, "-")
	out := Options{opts: append([]Option(nil), o.opts...)}
	for i := range out.opts {
		if out.opts[i].Name == name {
			out.opts[i].Value = value
			return out
		}
	}
	out.opts = append(out.opts, Option{Name: name, Value: value})
	return out
}

// Get returns the value of name.
func (o Options) Get(name string) (string, bool) {
	for _, opt := range o.opts {
		if opt.Name == name {
			return opt.Value, true
		}
	}
	return "", false
}

// Len returns the number of options.
func (o Options) Len() int { return len(o.opts) }

// All returns a copy of the options in order.
func (o Options) All() []Option { return append([]Option(nil), o.opts...) }

// Args renders the options as command-line arguments. Options with an empty
// value render as a bare flag.
func (o Options) Args() []string {
	args := make([]string, 0, 2*len(o.opts))
	for _, opt := range o.opts {
		args = append(args, "-"+opt.Name)
		if opt.Value != "" {
			args = append(args, opt.Value)
		}
	}
	return args
}
