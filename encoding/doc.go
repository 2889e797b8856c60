// Arbitrarily serialize and parse object content.
/*
Pojotool's goal is to make a single interface specification for any given
content type, so that content can be converted dynamically based on message
headers or mediatype sniffing, and mediatype-specific methods do not have to
be explicitly called by the developer.

Specific objectives

1. Clients can send arbitrary object serializations and request back
whichever encoding type they are most comfortable with.

2. Service developers do not have to explicitly add support for encoding
types to a given service or handler. Support for a mediatype should be able
to be added once to a shared library and gotten for free by an entire
ecosystem.

3. Object handling should be independent of format. Every format module runs
the same classification, swap, and tree-walk pipeline, so a swap definition
registered once applies to JSON, XML, YAML and every other registered format
at the same time.

4. Developers can easily extend all of their services to support a new
content type by creating their own format modules.
*/
package encoding
