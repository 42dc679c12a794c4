package rod

// blockTextJS returns the element text with one line per block element,
// whitespace collapsed and empty lines dropped. It is used instead of
// innerText, which loses line structure on detached nodes.
const blockTextJS = `function() {
	const blocks = new Set(["ADDRESS", "ARTICLE", "ASIDE", "BLOCKQUOTE", "DD", "DIV",
		"DL", "DT", "FIELDSET", "FIGCAPTION", "FIGURE", "FOOTER", "FORM", "H1", "H2",
		"H3", "H4", "H5", "H6", "HEADER", "HR", "LI", "MAIN", "NAV", "OL", "P", "PRE",
		"SECTION", "TABLE", "TR", "UL"]);
	const skip = new Set(["SCRIPT", "STYLE", "NOSCRIPT", "TEMPLATE"]);
	let out = "";
	let pre = 0;
	const walk = (n) => {
		if (n.nodeType === Node.TEXT_NODE) {
			out += pre > 0 ? n.data : n.data.replace(/[\r\n\t]/g, " ");
			return;
		}
		if (n.nodeType !== Node.ELEMENT_NODE) return;
		const tag = n.nodeName;
		if (skip.has(tag)) return;
		if (tag === "BR") {
			out += "\n";
			return;
		}
		const block = blocks.has(tag);
		if (block) out += "\n";
		if (tag === "PRE") pre++;
		for (const c of n.childNodes) walk(c);
		if (tag === "PRE") pre--;
		if (block) out += "\n";
	};
	walk(this);
	return out.split("\n")
		.map((l) => l.split(/\s+/).filter(Boolean).join(" "))
		.filter(Boolean)
		.join("\n");
}`

const innerHTMLJS = `function() { return this.innerHTML; }`

const countAncestorsJS = `function(sel) {
	let n = 0;
	for (let p = this.parentElement; p; p = p.parentElement) {
		if (p.matches(sel)) n++;
	}
	return n;
}`

// pruneJS returns a detached deep copy with matching descendants removed.
const pruneJS = `function(sel) {
	const c = this.cloneNode(true);
	c.querySelectorAll(sel).forEach((e) => e.remove());
	return c;
}`
