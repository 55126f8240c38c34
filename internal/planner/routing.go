package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// Assumed minimum useful load per truck when sizing a forced assignment.
const forcedLoadPerTruckKg = 1000.0

// routeNode is one required delivery visit: a warehouse (or a synthetic
// split of one) with the net quantity that must arrive there.
type routeNode struct {
	warehouseID int64
	x, y        float64
	demandKg    float64
}

// routingProblem is a capacitated routing instance over planar coordinates.
// The depot is held separately from the delivery nodes.
type routingProblem struct {
	depotX, depotY float64
	nodes          []routeNode
	capacities     []float64
	deadline       time.Time
}

func (p *routingProblem) dist(i, j int) float64 {
	a := p.nodes[i]
	b := p.nodes[j]
	return planarDistance(a.x, a.y, b.x, b.y)
}

func (p *routingProblem) distFromDepot(i int) float64 {
	return planarDistance(p.depotX, p.depotY, p.nodes[i].x, p.nodes[i].y)
}

func (p *routingProblem) expired() bool {
	return !p.deadline.IsZero() && time.Now().After(p.deadline)
}

// SolveStrategy attempts one way of assigning delivery nodes to vehicles.
// The result maps vehicle index to the ordered node indices it visits.
type SolveStrategy interface {
	Name() string
	Solve(p *routingProblem) (map[int][]int, error)
}

// RoutingSolverPolicy is the ordered list of solve strategies and the time
// budget each attempt may consume. The underlying solver heuristics are an
// implementation detail; callers only configure the chain.
type RoutingSolverPolicy struct {
	Strategies    []SolveStrategy
	AttemptBudget time.Duration
}

// DefaultSolverPolicy orders strategies cheapest-first: a plain first-fit
// scan, then distance-aware construction heuristics of increasing effort.
func DefaultSolverPolicy(attemptBudget time.Duration) RoutingSolverPolicy {
	return RoutingSolverPolicy{
		Strategies: []SolveStrategy{
			firstFitStrategy{},
			cheapestArcStrategy{},
			savingsStrategy{},
			mostConstrainedStrategy{},
		},
		AttemptBudget: attemptBudget,
	}
}

// RoutingOptimizer plans per-product truck routes for a candidate set. It
// never fails: when no strategy solves the capacitated instance it retries
// without the capacity dimension, and as a last resort synthesizes a forced
// round-robin assignment.
type RoutingOptimizer struct {
	Policy    RoutingSolverPolicy
	MaxTrucks int
}

// PlanProduct builds and solves the routing instance for one product's
// transfers. A canceled context skips solving and goes straight to the
// forced assignment.
func (o *RoutingOptimizer) PlanProduct(
	ctx context.Context,
	productID int64,
	candidates []TransferCandidate,
	warehouses []domain.WarehouseNode,
	trucks []domain.Truck,
) map[string]RouteAssignment {
	if len(candidates) == 0 {
		return nil
	}

	fleet := trucks
	if o.MaxTrucks > 0 && len(fleet) > o.MaxTrucks {
		fleet = fleet[:o.MaxTrucks]
	}
	if len(fleet) == 0 {
		log.Warn().Int64("product", productID).Msg("no trucks available for routing")
		return nil
	}

	totalLoad := 0.0
	for _, c := range candidates {
		totalLoad += c.QuantityKg
	}

	if ctx.Err() != nil {
		log.Warn().Int64("product", productID).Msg("routing deadline reached, forcing assignment")
		return forcedAssignments(fleet, totalLoad)
	}

	nodes, depotX, depotY, surplus, deficit := buildNodes(candidates, warehouses)

	capacities := make([]float64, len(fleet))
	fleetCapacity := 0.0
	maxCapacity := 0.0
	for i, t := range fleet {
		capacities[i] = t.CapacityKg
		fleetCapacity += t.CapacityKg
		if t.CapacityKg > maxCapacity {
			maxCapacity = t.CapacityKg
		}
	}

	if surplus <= 0 || deficit <= 0 {
		// Degenerate instance (e.g. circular transfers netting to zero);
		// still emit an assignment so the product keeps truck coverage.
		return forcedAssignments(fleet, totalLoad)
	}

	// Scale deficits down so the planned redistribution fits the fleet.
	redistribution := math.Min(math.Min(surplus, deficit), fleetCapacity)
	scale := redistribution / deficit
	deliveries := make([]routeNode, 0, len(nodes))
	for _, n := range nodes {
		if n.demandKg <= 0 {
			continue
		}
		n.demandKg *= scale
		deliveries = append(deliveries, n)
	}

	deliveries = splitOversized(deliveries, maxCapacity)

	problem := &routingProblem{
		depotX:     depotX,
		depotY:     depotY,
		nodes:      deliveries,
		capacities: capacities,
	}

	for _, strategy := range o.Policy.Strategies {
		if ctx.Err() != nil {
			break
		}
		problem.deadline = time.Now().Add(o.Policy.AttemptBudget)
		routes, err := strategy.Solve(problem)
		if err != nil {
			log.Debug().Err(err).Str("strategy", strategy.Name()).Int64("product", productID).
				Msg("routing strategy failed")
			continue
		}
		log.Info().Str("strategy", strategy.Name()).Int64("product", productID).
			Int("trucks", len(routes)).Msg("routing solved")
		return vehicleAssignments("vrp_route", routes, fleet, redistribution)
	}

	// Retry without the capacity dimension.
	if ctx.Err() == nil {
		if routes := solveUncapacitated(problem); len(routes) > 0 {
			log.Info().Int64("product", productID).Int("trucks", len(routes)).
				Msg("routing solved without capacity constraints")
			return vehicleAssignments("basic_route", routes, fleet, totalLoad)
		}
	}

	log.Warn().Int64("product", productID).Msg("all routing strategies failed, forcing assignment")
	return forcedAssignments(fleet, totalLoad)
}

// buildNodes projects the involved warehouses and computes each one's net
// demand (inbound minus outbound kg). The depot is the warehouse with the
// most outgoing transfers.
func buildNodes(candidates []TransferCandidate, warehouses []domain.WarehouseNode) (nodes []routeNode, depotX, depotY, surplus, deficit float64) {
	outgoing := make(map[int64]int)
	net := make(map[int64]float64)
	for _, c := range candidates {
		outgoing[c.FromWarehouseID]++
		net[c.FromWarehouseID] -= c.QuantityKg
		net[c.ToWarehouseID] += c.QuantityKg
	}

	involved := make([]int64, 0, len(net))
	for id := range net {
		involved = append(involved, id)
	}
	sort.Slice(involved, func(i, j int) bool { return involved[i] < involved[j] })

	depotID := involved[0]
	for _, id := range involved {
		if outgoing[id] > outgoing[depotID] {
			depotID = id
		}
	}

	position := make(map[int64][2]float64, len(warehouses))
	for _, w := range warehouses {
		x, y := mercatorXY(w.Latitude, w.Longitude)
		position[w.ID] = [2]float64{x, y}
	}

	for _, id := range involved {
		pos := position[id]
		nodes = append(nodes, routeNode{warehouseID: id, x: pos[0], y: pos[1], demandKg: net[id]})
		if net[id] < 0 {
			surplus += -net[id]
		} else {
			deficit += net[id]
		}
	}

	depotPos := position[depotID]
	return nodes, depotPos[0], depotPos[1], surplus, deficit
}

// splitOversized replaces any node whose demand exceeds the largest truck
// with several synthetic visits at the same coordinates, each within
// capacity.
func splitOversized(nodes []routeNode, maxCapacity float64) []routeNode {
	if maxCapacity <= 0 {
		return nodes
	}
	out := make([]routeNode, 0, len(nodes))
	for _, n := range nodes {
		if n.demandKg <= maxCapacity {
			out = append(out, n)
			continue
		}
		parts := int(math.Ceil(n.demandKg / maxCapacity))
		share := n.demandKg / float64(parts)
		for i := 0; i < parts; i++ {
			split := n
			split.demandKg = share
			out = append(out, split)
		}
	}
	return out
}

// firstFitStrategy drops each node into the first vehicle with room, in
// input order. Cheapest possible construction, ignores distance entirely.
type firstFitStrategy struct{}

func (firstFitStrategy) Name() string { return "first_fit" }

func (firstFitStrategy) Solve(p *routingProblem) (map[int][]int, error) {
	remaining := append([]float64(nil), p.capacities...)
	routes := make(map[int][]int)
	for i, n := range p.nodes {
		if p.expired() {
			return nil, fmt.Errorf("first_fit: attempt budget exceeded")
		}
		placed := false
		for v := range remaining {
			if n.demandKg <= remaining[v] {
				remaining[v] -= n.demandKg
				routes[v] = append(routes[v], i)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("first_fit: node %d (%.0fkg) fits no vehicle", i, n.demandKg)
		}
	}
	return routes, nil
}

// cheapestArcStrategy grows each vehicle's route by repeatedly taking the
// nearest unvisited node that still fits.
type cheapestArcStrategy struct{}

func (cheapestArcStrategy) Name() string { return "path_cheapest_arc" }

func (cheapestArcStrategy) Solve(p *routingProblem) (map[int][]int, error) {
	visited := make([]bool, len(p.nodes))
	left := len(p.nodes)
	routes := make(map[int][]int)

	for v := range p.capacities {
		capacity := p.capacities[v]
		atDepot := true
		var last int
		for left > 0 {
			if p.expired() {
				return nil, fmt.Errorf("path_cheapest_arc: attempt budget exceeded")
			}
			best := -1
			bestDist := math.MaxFloat64
			for i, n := range p.nodes {
				if visited[i] || n.demandKg > capacity {
					continue
				}
				var d float64
				if atDepot {
					d = p.distFromDepot(i)
				} else {
					d = p.dist(last, i)
				}
				if d < bestDist {
					best = i
					bestDist = d
				}
			}
			if best == -1 {
				break
			}
			visited[best] = true
			capacity -= p.nodes[best].demandKg
			routes[v] = append(routes[v], best)
			last = best
			atDepot = false
			left--
		}
	}

	if left > 0 {
		return nil, fmt.Errorf("path_cheapest_arc: %d nodes unassigned", left)
	}
	return routes, nil
}

// savingsStrategy is a Clarke-Wright construction: singleton routes merged
// in descending savings order while the merged load fits the largest
// vehicle, then routes matched to vehicles best-fit by load.
type savingsStrategy struct{}

func (savingsStrategy) Name() string { return "savings" }

func (savingsStrategy) Solve(p *routingProblem) (map[int][]int, error) {
	n := len(p.nodes)
	if n == 0 {
		return map[int][]int{}, nil
	}

	maxCapacity := 0.0
	for _, c := range p.capacities {
		if c > maxCapacity {
			maxCapacity = c
		}
	}

	routeOf := make([]int, n)
	routes := make([][]int, n)
	loads := make([]float64, n)
	for i := 0; i < n; i++ {
		routeOf[i] = i
		routes[i] = []int{i}
		loads[i] = p.nodes[i].demandKg
	}

	type saving struct {
		i, j  int
		value float64
	}
	var savings []saving
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			savings = append(savings, saving{
				i: i, j: j,
				value: p.distFromDepot(i) + p.distFromDepot(j) - p.dist(i, j),
			})
		}
	}
	sort.SliceStable(savings, func(a, b int) bool { return savings[a].value > savings[b].value })

	for _, s := range savings {
		if p.expired() {
			return nil, fmt.Errorf("savings: attempt budget exceeded")
		}
		ri, rj := routeOf[s.i], routeOf[s.j]
		if ri == rj {
			continue
		}
		// Merge only at route ends, as in the classical construction.
		endI := routes[ri][len(routes[ri])-1] == s.i
		startJ := routes[rj][0] == s.j
		if !endI || !startJ {
			continue
		}
		if loads[ri]+loads[rj] > maxCapacity {
			continue
		}
		routes[ri] = append(routes[ri], routes[rj]...)
		loads[ri] += loads[rj]
		for _, node := range routes[rj] {
			routeOf[node] = ri
		}
		routes[rj] = nil
		loads[rj] = 0
	}

	var built [][]int
	var builtLoads []float64
	for i, r := range routes {
		if len(r) > 0 {
			built = append(built, r)
			builtLoads = append(builtLoads, loads[i])
		}
	}
	if len(built) > len(p.capacities) {
		return nil, fmt.Errorf("savings: %d routes for %d vehicles", len(built), len(p.capacities))
	}

	// Heaviest routes claim vehicles first, best fit by remaining capacity.
	order := make([]int, len(built))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return builtLoads[order[a]] > builtLoads[order[b]] })

	assigned := make(map[int][]int)
	usedVehicle := make([]bool, len(p.capacities))
	for _, ri := range order {
		best := -1
		bestCap := math.MaxFloat64
		for v, c := range p.capacities {
			if usedVehicle[v] || c < builtLoads[ri] {
				continue
			}
			if c < bestCap {
				best = v
				bestCap = c
			}
		}
		if best == -1 {
			return nil, fmt.Errorf("savings: route of %.0fkg fits no free vehicle", builtLoads[ri])
		}
		usedVehicle[best] = true
		assigned[best] = built[ri]
	}
	return assigned, nil
}

// mostConstrainedStrategy places the largest demands first, each into the
// tightest vehicle that still fits.
type mostConstrainedStrategy struct{}

func (mostConstrainedStrategy) Name() string { return "most_constrained" }

func (mostConstrainedStrategy) Solve(p *routingProblem) (map[int][]int, error) {
	order := make([]int, len(p.nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.nodes[order[a]].demandKg > p.nodes[order[b]].demandKg
	})

	remaining := append([]float64(nil), p.capacities...)
	routes := make(map[int][]int)
	for _, i := range order {
		if p.expired() {
			return nil, fmt.Errorf("most_constrained: attempt budget exceeded")
		}
		best := -1
		bestLeft := math.MaxFloat64
		for v, left := range remaining {
			if left < p.nodes[i].demandKg {
				continue
			}
			if left < bestLeft {
				best = v
				bestLeft = left
			}
		}
		if best == -1 {
			return nil, fmt.Errorf("most_constrained: node %d (%.0fkg) fits no vehicle", i, p.nodes[i].demandKg)
		}
		remaining[best] -= p.nodes[i].demandKg
		routes[best] = append(routes[best], i)
	}
	return routes, nil
}

// solveUncapacitated orders all nodes nearest-neighbor from the depot and
// deals the sequence round-robin across vehicles, ignoring capacity.
func solveUncapacitated(p *routingProblem) map[int][]int {
	if len(p.capacities) == 0 {
		return nil
	}

	visited := make([]bool, len(p.nodes))
	sequence := make([]int, 0, len(p.nodes))
	atDepot := true
	var last int
	for len(sequence) < len(p.nodes) {
		best := -1
		bestDist := math.MaxFloat64
		for i := range p.nodes {
			if visited[i] {
				continue
			}
			var d float64
			if atDepot {
				d = p.distFromDepot(i)
			} else {
				d = p.dist(last, i)
			}
			if d < bestDist {
				best = i
				bestDist = d
			}
		}
		visited[best] = true
		sequence = append(sequence, best)
		last = best
		atDepot = false
	}

	vehicles := len(p.capacities)
	if vehicles > len(sequence) {
		vehicles = len(sequence)
	}
	routes := make(map[int][]int)
	for i, node := range sequence {
		v := i % vehicles
		routes[v] = append(routes[v], node)
	}
	return routes
}

// vehicleAssignments converts solved routes into keyed truck assignments,
// spreading the planned load evenly across the trucks that move.
func vehicleAssignments(prefix string, routes map[int][]int, fleet []domain.Truck, totalLoad float64) map[string]RouteAssignment {
	used := make([]int, 0, len(routes))
	for v, nodes := range routes {
		if len(nodes) > 0 {
			used = append(used, v)
		}
	}
	if len(used) == 0 {
		return nil
	}
	sort.Ints(used)

	share := totalLoad / float64(len(used))
	assignments := make(map[string]RouteAssignment, len(used))
	for _, v := range used {
		assignments[fmt.Sprintf("%s_%d", prefix, v)] = RouteAssignment{
			TruckID:     fleet[v].ID,
			CapacityKg:  fleet[v].CapacityKg,
			TotalLoadKg: share,
		}
	}
	return assignments
}

// forcedAssignments sizes a round-robin truck assignment from the total load
// alone. Last resort; keeps every product with inventory to move covered.
func forcedAssignments(fleet []domain.Truck, totalLoad float64) map[string]RouteAssignment {
	if len(fleet) == 0 {
		return nil
	}
	trucksNeeded := int(totalLoad / forcedLoadPerTruckKg)
	if trucksNeeded < 1 {
		trucksNeeded = 1
	}
	if trucksNeeded > len(fleet) {
		trucksNeeded = len(fleet)
	}

	assignments := make(map[string]RouteAssignment, trucksNeeded)
	for i := 0; i < trucksNeeded; i++ {
		assignments[fmt.Sprintf("forced_route_%d", i)] = RouteAssignment{
			TruckID:     fleet[i].ID,
			CapacityKg:  fleet[i].CapacityKg,
			TotalLoadKg: totalLoad / float64(trucksNeeded),
		}
	}
	return assignments
}
