package logger

import (
    "context"
    "encoding/json"
    "sync"
    "sync/atomic"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
)

const (
    shipBuffer = 1000
    shipBatch  = 200
)

// shipper is an io.Writer that turns zerolog JSON lines into Axiom events and
// ingests them in batches from a single goroutine. Debug lines are not shipped.
// When the buffer is full new events are dropped and counted.
type shipper struct {
    client  *axiom.Client
    dataset string
    events  chan axiom.Event
    done    chan struct{}
    wg      sync.WaitGroup
    dropped atomic.Int64
}

func newShipper(token, orgID, dataset string, every time.Duration) (*shipper, error) {
    opts := []axiom.Option{axiom.SetToken(token)}
    if orgID != "" { opts = append(opts, axiom.SetOrganizationID(orgID)) }
    c, err := axiom.NewClient(opts...)
    if err != nil { return nil, err }
    if dataset == "" { dataset = "dev_" + service }
    if every <= 0 { every = 10 * time.Second }

    s := &shipper{client: c, dataset: dataset, events: make(chan axiom.Event, shipBuffer), done: make(chan struct{})}
    s.wg.Add(1)
    go s.run(every)
    return s, nil
}

func (s *shipper) Write(p []byte) (int, error) {
    ev := axiom.Event{}
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = axiom.Event{"message": string(p), "level": "info"}
    }
    if ev["level"] == "debug" {
        return len(p), nil
    }
    ev["service"] = service
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }
    select {
    case s.events <- ev:
    default:
        s.dropped.Add(1)
    }
    return len(p), nil
}

func (s *shipper) run(every time.Duration) {
    defer s.wg.Done()
    tick := time.NewTicker(every)
    defer tick.Stop()

    batch := make([]axiom.Event, 0, shipBatch)
    flush := func() {
        if len(batch) == 0 { return }
        ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
        _, _ = s.client.IngestEvents(ctx, s.dataset, batch)
        cancel()
        batch = batch[:0]
    }
    for {
        select {
        case ev := <-s.events:
            batch = append(batch, ev)
            if len(batch) == shipBatch { flush() }
        case <-tick.C:
            flush()
        case <-s.done:
            for {
                select {
                case ev := <-s.events:
                    batch = append(batch, ev)
                    if len(batch) == shipBatch { flush() }
                default:
                    flush()
                    return
                }
            }
        }
    }
}

// Close flushes buffered events and returns how many were dropped.
func (s *shipper) Close() int64 {
    close(s.done)
    s.wg.Wait()
    return s.dropped.Load()
}
