// Package async runs work off the request goroutine.
//
// Future and Go fan out independent reads and collect them with WaitAll:
//
//	tenantF := async.Go(ctx, id, loadTenant)
//	reviewsF := async.Go(ctx, id, loadReviews)
//	tenant, err := tenantF.Await()
//
// Pool runs fire-and-forget tasks, such as notification e-mails, on a fixed
// number of workers and drains them on shutdown.
package async
