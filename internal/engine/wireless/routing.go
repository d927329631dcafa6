package wireless

import "net/netip"

const (
	advertBytes     = 64
	advertJitterSec = 0.01
)

// ComputeRoutes fills every device's next-hop table with the first hop
// of a shortest path over the connectivity graph, the global-knowledge
// analog of a converged routing protocol. Ties break toward the lowest
// neighbor index, so tables are deterministic. Unreachable destinations
// get no entry; frames for them are dropped at the sender.
func (m *Medium) ComputeRoutes() {
	n := len(m.devices)
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.inRange(m.devices[i], m.devices[j]) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	for _, d := range m.devices {
		d.nextHop = make(map[netip.Addr]int, n-1)
	}

	for s := 0; s < n; s++ {
		prev := bfs(adj, s)
		for t := 0; t < n; t++ {
			if t == s || prev[t] < 0 {
				continue
			}
			hop := t
			for prev[hop] != s {
				hop = prev[hop]
			}
			m.devices[s].nextHop[m.devices[t].node.Addr] = hop
		}
	}
}

// bfs returns the predecessor of every node on a shortest path from
// src, or -1 where unreachable.
func bfs(adj [][]int, src int) []int {
	prev := make([]int, len(adj))
	for i := range prev {
		prev[i] = -1
	}
	visited := make([]bool, len(adj))
	visited[src] = true
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if !visited[v] {
				visited[v] = true
				prev[v] = u
				queue = append(queue, v)
			}
		}
	}
	return prev
}

// Neighbors returns the node ids directly reachable from node i.
func (m *Medium) Neighbors(i int) []int {
	var out []int
	for j, d := range m.devices {
		if j != i && m.inRange(m.devices[i], d) {
			out = append(out, j)
		}
	}
	return out
}

// ScheduleAdvertisements emits one routing advertisement from every
// device to each of its neighbors, jittered around time zero the way a
// proactive protocol floods its first updates. The instrumentation
// layer aggregates this traffic below the data flow ids.
func (m *Medium) ScheduleAdvertisements() {
	for i, d := range m.devices {
		for _, nb := range m.Neighbors(i) {
			d := d
			dst := m.devices[nb].node.Addr
			at := m.rng.Float64() * advertJitterSec
			m.sched.ScheduleAt(at, func() {
				d.SendTo(dst, ControlPort, ControlPort, advertBytes)
			})
		}
	}
}
