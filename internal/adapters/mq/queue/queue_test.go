package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Len(), ShouldEqual, 0)

		Convey("When jobs are enqueued up to capacity", func() {
			So(q.Enqueue(ctx, Job{CandidateID: "a"}), ShouldBeNil)
			So(q.Enqueue(ctx, Job{CandidateID: "b"}), ShouldBeNil)

			Convey("Then the next enqueue is rejected as full", func() {
				So(q.Enqueue(ctx, Job{CandidateID: "c"}), ShouldEqual, ErrFull)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then a waiting enqueue completes once a job is taken", func() {
				done := make(chan error, 1)
				go func() { done <- q.EnqueueWait(ctx, Job{CandidateID: "c"}) }()

				dctx, cancel := context.WithCancel(ctx)
				defer cancel()
				ch := q.Dequeue(dctx)
				So((<-ch).CandidateID, ShouldEqual, "a")

				var err error
				select {
				case err = <-done:
				case <-time.After(2 * time.Second):
					err = fmt.Errorf("enqueue still blocked")
				}
				So(err, ShouldBeNil)
				So((<-ch).CandidateID, ShouldEqual, "b")
				So((<-ch).CandidateID, ShouldEqual, "c")
			})

			Convey("Then a waiting enqueue gives up when its context ends", func() {
				wctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
				defer cancel()
				So(q.EnqueueWait(wctx, Job{CandidateID: "c"}), ShouldEqual, context.DeadlineExceeded)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then closing the queue releases a waiting enqueue", func() {
				done := make(chan error, 1)
				go func() { done <- q.EnqueueWait(ctx, Job{CandidateID: "c"}) }()
				time.Sleep(10 * time.Millisecond)
				So(q.Close(), ShouldBeNil)

				var err error
				select {
				case err = <-done:
				case <-time.After(2 * time.Second):
					err = fmt.Errorf("enqueue still blocked")
				}
				So(err, ShouldEqual, ErrClosed)
			})

			Convey("Then jobs come out in order with a timestamp", func() {
				dctx, cancel := context.WithCancel(ctx)
				defer cancel()
				ch := q.Dequeue(dctx)
				first := <-ch
				second := <-ch
				So(first.CandidateID, ShouldEqual, "a")
				So(second.CandidateID, ShouldEqual, "b")
				So(first.EnqueuedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, Job{CandidateID: "pending"}), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, Job{CandidateID: "late"}), ShouldEqual, ErrClosed)
				So(q.EnqueueWait(ctx, Job{CandidateID: "late"}), ShouldEqual, ErrClosed)
			})

			Convey("Then pending jobs drain and the channel closes", func() {
				var got []string
				for j := range q.Dequeue(ctx) {
					got = append(got, j.CandidateID)
				}
				So(got, ShouldResemble, []string{"pending"})
			})
		})

		Convey("When the caller context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue reports the context error", func() {
				So(q.Enqueue(cctx, Job{CandidateID: "x"}), ShouldEqual, context.Canceled)
			})
		})
	})
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(64))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const producers, perProducer = 8, 50
	var consumed sync.WaitGroup
	seen := make(chan string, producers*perProducer)
	for i := 0; i < 4; i++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for j := range q.Dequeue(ctx) {
				seen <- j.CandidateID
			}
		}()
	}

	var produced sync.WaitGroup
	for p := 0; p < producers; p++ {
		produced.Add(1)
		go func(p int) {
			defer produced.Done()
			for i := 0; i < perProducer; i++ {
				id := fmt.Sprintf("c%d-%d", p, i)
				for q.Enqueue(ctx, Job{CandidateID: id}) == ErrFull {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	produced.Wait()
	_ = q.Close()
	consumed.Wait()
	close(seen)

	count := 0
	for range seen {
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("expected %d jobs, got %d", producers*perProducer, count)
	}
}
