// Package topic classifies channel titles into topic labels using ordered
// keyword heuristics.
//
// Classification is a first-match policy, not a scoring policy: topics are
// tried in declaration order and the first topic with any matching keyword
// wins. The rule set is compiled once at construction and queried read-only
// afterwards, so one Classifier is safe for concurrent use.
package topic
