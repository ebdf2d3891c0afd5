package report

import (
	"bufio"
	"fmt"
	"io"

	"flowlog-tagger/internal/aggregate"
	"flowlog-tagger/internal/lookup"
)

const (
	tagSection  = "Tag Counts:"
	tagHeader   = "Tag,Count"
	untagged    = "Untagged"
	portSection = "Port/Protocol Combination Counts:"
	portHeader  = "Port,Protocol,Count"
)

// Options controls row ordering.
type Options struct {
	// Sorted orders tags lexically and keys by port then protocol. When
	// false rows follow map iteration order.
	Sorted bool
}

// Write renders the two-section report to w.
func Write(w io.Writer, c *aggregate.Counts, opts Options) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, tagSection)
	fmt.Fprintln(bw, tagHeader)
	for _, tag := range tagOrder(c, opts) {
		fmt.Fprintf(bw, "%s,%d\n", tag, c.Tags[tag])
	}
	fmt.Fprintf(bw, "%s,%d\n", untagged, c.Untagged)

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, portSection)
	fmt.Fprintln(bw, portHeader)
	for _, k := range keyOrder(c, opts) {
		fmt.Fprintf(bw, "%d,%s,%d\n", k.Port, k.Protocol, c.PortProtocol[k])
	}

	// bufio.Writer keeps the first write error; Flush returns it.
	return bw.Flush()
}

func tagOrder(c *aggregate.Counts, opts Options) []string {
	if opts.Sorted {
		return c.TagNames()
	}
	out := make([]string, 0, len(c.Tags))
	for t := range c.Tags {
		out = append(out, t)
	}
	return out
}

func keyOrder(c *aggregate.Counts, opts Options) []lookup.Key {
	if opts.Sorted {
		return c.Keys()
	}
	out := make([]lookup.Key, 0, len(c.PortProtocol))
	for k := range c.PortProtocol {
		out = append(out, k)
	}
	return out
}
