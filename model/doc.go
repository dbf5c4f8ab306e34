// Package model holds the value types shared by the flyer pipeline.
//
// Geometry is expressed in PDF points with the origin at the bottom-left of
// the page, matching the coordinate space of a PDF content stream. Footer
// heights are carried in millimetres because that is how the band is
// specified and reported; [MMToPoints] and [PointsToMM] convert between the
// two.
//
// # Footer Detection
//
// A [FooterCandidate] is a proposal produced by one detector (keyword scan
// or heuristic advisor). The decision policy reduces the candidates to a
// single [FooterDecision] whose height is always inside
// [MinFooterHeightMM, MaxFooterHeightMM].
//
// # Broker Identity
//
// [BrokerProfile] carries the identity printed into the replacement band.
// Only CompanyName is mandatory; every other field is optional and simply
// omitted from the band when empty.
package model
