// Package devserver serves a live preview of a mounted document.
//
// Routes:
//
//	GET  /                 the document as a page, with the live client script
//	GET  /document         the body HTML as JSON
//	GET  /ws               websocket; one document message per scheduler flush
//	GET  /actions          registered action names
//	POST /actions/{name}   run an action on the loop
//	GET  /metrics          Prometheus exposition
//
// Every handler reaches the document through loop.Loop.Submit, so the loop
// goroutine stays the only one touching components and nodes.
//
//	srv := devserver.New(l, sched, doc)
//	srv.Handle("increment", func(ctx context.Context) error {
//	    counter.Increment()
//	    return nil
//	})
//	err := srv.ListenAndServe(ctx, ":7070")
package devserver
