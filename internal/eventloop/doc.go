// Package eventloop provides the single-owner execution model the storefront
// controllers run on. State belongs to one loop; timers and network
// completions are posted back to it and run one at a time, so controllers
// need no locks. Superseded work is never cancelled, only ignored by the
// owner when it comes back.
package eventloop
