// Package batch maps a per-item function over a slice in fixed-size batches.
//
// Items within a batch run on a bounded worker pool; batches run one after
// another so memory stays proportional to the batch size. Results keep the
// input order, which lets callers report products in inventory order no
// matter how many workers were used.
package batch
