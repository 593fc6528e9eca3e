// Package smrproxy implements epoch-based safe memory reclamation (SMR)
// for concurrent data structures.
//
// Readers traverse shared, mutable-by-replacement structures without
// holding locks. Writers retire obsolete objects with Proxy.Retire; the
// proxy guarantees a retired object's destructor does not run while any
// reader may still hold a reference to it.
//
// # Quick start
//
//	p, err := smrproxy.NewProxy(smrproxy.DefaultConfig())
//	if err != nil {
//		panic(err)
//	}
//	defer p.Close()
//
//	ref := p.NewRef()
//	defer ref.Close()
//
//	ref.Acquire()
//	node := loadSharedPointer()
//	use(node)
//	ref.Release()
//
//	// elsewhere, on a writer goroutine:
//	old := swapSharedPointer(newNode)
//	p.Retire(old, func(obj any) { free(obj.(*Node)) })
//
// # Reader fast path
//
// Ref.Acquire, Ref.Release, and Ref.Next are the only operations meant
// to run on a hot read path. They touch nothing but the reference
// itself and the proxy's current-epoch cell; no lock is taken. Every
// other operation (Retire, NewRef, Close, Reclaim) takes the proxy's
// mutex and is expected to be comparatively rare.
//
// # What this is not
//
// This is not a general-purpose garbage collector: it does not trace
// pointer graphs or compute reachability, does not bound retirement
// latency, and provides no forward-progress guarantee if a reader
// holds a reference indefinitely — doing so blocks reclamation of
// everything retired since.
package smrproxy
