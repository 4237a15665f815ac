package scheduler

import (
	"fmt"
	"sort"

	"github.com/cuemby/tessera/pkg/types"
)

// hasResources checks an offer against the server task's requirements and
// returns one human-readable shortfall message per failing constraint, in
// a fixed order (cpu, mem, disk, then ports by name). An empty slice means
// the offer satisfies the requirements.
//
// The comparisons are deliberately strict: the offer must carry strictly
// more than the requirement.
func hasResources(offer *types.Offer, cpu float64, mem, disk int64, portMapping map[string]int64) []string {
	var errors []string

	availableCpus := offer.Scalar("cpus")
	availableMem := int64(offer.Scalar("mem"))
	availableDisk := int64(offer.Scalar("disk"))

	if availableCpus <= cpu {
		errors = append(errors, fmt.Sprintf("Not enough cpu resources. Required %f only %f available.", cpu, availableCpus))
	}
	if availableMem <= mem {
		errors = append(errors, fmt.Sprintf("Not enough mem resources. Required %d only %d available", mem, availableMem))
	}
	if availableDisk <= disk {
		errors = append(errors, fmt.Sprintf("Not enough disk resources. Required %d only %d available", disk, availableDisk))
	}

	available := offer.Ports("ports")
	names := make([]string, 0, len(portMapping))
	for name := range portMapping {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		port := portMapping[name]
		if !available[port] {
			errors = append(errors, fmt.Sprintf("Unavailable port %d(%s). %d other ports available.", port, name, len(available)))
		}
	}

	return errors
}
