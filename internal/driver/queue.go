package driver

import "github.com/jwmdev/busstation/internal/station"

// boardingQueue reorders BoardingRequests by Ordinal so a VIP request
// queued behind an ordinary one is still served first, the way the
// teacher's driver/batch.go eventPQ reorders bus-stop events by time
// with container/heap instead of trusting arrival order.
type boardingQueue []station.BoardingRequest

func (q boardingQueue) Len() int           { return len(q) }
func (q boardingQueue) Less(i, j int) bool { return q[i].Ordinal < q[j].Ordinal }
func (q boardingQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *boardingQueue) Push(x any) { *q = append(*q, x.(station.BoardingRequest)) }

func (q *boardingQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	*q = old[:n-1]
	return v
}
