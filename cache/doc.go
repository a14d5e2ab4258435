// Package cache implements a request cache for remote endpoints.
//
// # Overview
//
// An Engine holds cache entries keyed by endpoint, operation and a stable
// serialization of the argument. Endpoints are registered with
// DefineEndpoint and expose two kinds of operation:
//
//   - Queries are cached. Subscribers to the same key share one entry and
//     at most one in-flight fetch.
//   - Mutations are never cached. On completion they invalidate tags.
//
// # Tags
//
// Queries provide tags computed from their result, error and argument.
// Mutations name the tags they invalidate. Invalidating a tag marks every
// entry carrying it stale. Entries with subscribers refetch right away;
// the others refetch when next subscribed.
//
//	ep, _ := engine.DefineEndpoint(cache.EndpointConfig{
//		Name: "messages",
//		Operations: []cache.Operation{
//			{
//				Name:  "getUserMessages",
//				Kind:  cache.KindQuery,
//				Fetch: fetchMessages,
//				ProvidesTags: func(_ any, _ error, arg any) []cache.Tag {
//					return []cache.Tag{cache.IDTag("Messages", arg.(string))}
//				},
//			},
//			{
//				Name:  "sendMessage",
//				Kind:  cache.KindMutation,
//				Fetch: sendMessage,
//				InvalidatesTags: func(_ any, _ error, arg any) []cache.Tag {
//					return []cache.Tag{cache.IDTag("Messages", arg.(SendArgs).To)}
//				},
//			},
//		},
//	})
//
// # Stale data
//
// While a refetch is in flight an entry keeps its last data, so consumers
// can show it with a fetching indicator. A failed refetch keeps the data
// too and records the error next to it.
//
// # Lifetime
//
// An entry whose last subscriber leaves moves to a retained store backed by
// sturdyc and expires after Config.KeepUnusedDataFor. Subscribing again
// within that window revives it. Polling timers belong to entries and stop
// as soon as the last subscriber leaves.
package cache
