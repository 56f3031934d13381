package browser

import (
	"ui_autoid/domain/entities"
	"ui_autoid/domain/identifier"
)

// RefAttribute marks an element reported to Go and not yet written back
const RefAttribute = "data-autoid-ref"

// reportBinding is the page function the observer script reports through
const reportBinding = "__autoidReport"

// refLease is how long, in milliseconds, a ref stays reserved for the batch
// that issued it. Elements whose ref is older are collected again.
const refLease = `5000`

// collectFn evaluates to a function that takes inserted roots, tags every
// qualifying unlabeled element with a ref and returns the JSON batch, or
// null when nothing new was found. Ancestor nodes are shared between chains
// through a per-page key.
const collectFn = `(() => {
	const ATTR = '` + entities.IdentifierAttribute + `';
	const REF = '` + RefAttribute + `';
	const SELECTOR = 'input, textarea, select, button, a, [role="button"], [role="link"]';
	const TEXT_LEVELS = 2;
	const TEXT_CAP = 4096;
	const LEASE_MS = ` + refLease + `;

	const state = window.__autoidState || (window.__autoidState = { keys: new WeakMap(), next: 1, refs: 1, pending: new Map() });
	const keyOf = (el) => {
		let key = state.keys.get(el);
		if (!key) {
			key = state.next++;
			state.keys.set(el, key);
		}
		return key;
	};
	const indexOf = (el) => el.parentElement ? Array.prototype.indexOf.call(el.parentElement.children, el) : 0;

	return function collect(roots) {
		const body = document.body;
		if (!body) return null;

		const now = Date.now();
		for (const [ref, issued] of state.pending) {
			if (now - issued >= LEASE_MS) state.pending.delete(ref);
		}

		const targets = [];
		for (const root of roots) {
			if (!(root instanceof Element) || !body.contains(root)) continue;
			if (root.matches(SELECTOR)) targets.push(root);
			root.querySelectorAll(SELECTOR).forEach((el) => targets.push(el));
		}

		const nodes = new Map();
		const added = [];
		for (const el of targets) {
			if (el.hasAttribute(ATTR)) continue;
			if (el.hasAttribute(REF) && state.pending.has(el.getAttribute(REF))) continue;
			const ref = String(state.refs++);
			el.setAttribute(REF, ref);
			state.pending.set(ref, now);
			added.push(keyOf(el));

			let cur = el;
			let level = 0;
			while (cur) {
				const key = keyOf(cur);
				let n = nodes.get(key);
				if (!n) {
					n = { key: key, parent: 0, tag: cur.tagName, index: indexOf(cur), attrs: {}, boundary: cur === body };
					for (const name of ['role', ATTR]) {
						if (cur.hasAttribute(name)) n.attrs[name] = cur.getAttribute(name);
					}
					if (cur.hasAttribute(REF)) n.ref = cur.getAttribute(REF);
					if (cur instanceof HTMLInputElement || cur instanceof HTMLTextAreaElement) {
						n.hasPlaceholder = true;
						n.placeholder = cur.placeholder || '';
					}
					nodes.set(key, n);
				}
				if (level < TEXT_LEVELS && n.text === undefined) {
					n.text = (cur.textContent || '').trim().slice(0, TEXT_CAP);
				}
				if (cur === body) break;

				const parent = cur.parentElement;
				if (parent) n.parent = keyOf(parent);
				cur = parent;
				level++;
			}
		}

		if (!added.length) return null;
		return JSON.stringify({ url: location.href, nodes: Array.from(nodes.values()), added: added });
	};
})()`

// writeFn sets the attribute on the element carrying ref unless it is
// already present, then drops the ref. It returns false when no element
// carries ref, either detached or re-collected under a newer ref.
const writeFn = `function (ref, name, value) {
	if (window.__autoidState) window.__autoidState.pending.delete(ref);
	const el = document.querySelector('[` + RefAttribute + `="' + ref + '"]');
	if (!el) return false;
	if (!el.hasAttribute(name)) el.setAttribute(name, value);
	el.removeAttribute('` + RefAttribute + `');
	return true;
}`

// observerScript installs a MutationObserver on the body that reports
// through the exposed binding, and rescans the body while refs are left
// pending past their lease. Safe to run more than once per document.
const observerScript = `(() => {
	if (window.__autoidObserver) return;
	window.__autoidObserver = true;

	const collect = ` + collectFn + `;
	const report = (roots) => {
		const payload = collect(roots);
		if (payload && typeof window.` + reportBinding + ` === 'function') {
			window.` + reportBinding + `(payload);
		}
	};
	const start = () => {
		report([document.body]);
		new MutationObserver((records) => {
			const roots = [];
			for (const record of records) {
				record.addedNodes.forEach((n) => {
					if (n.nodeType === Node.ELEMENT_NODE) roots.push(n);
				});
			}
			if (roots.length) report(roots);
		}).observe(document.body, { childList: true, subtree: true });

		setInterval(() => {
			const state = window.__autoidState;
			if (!state) return;
			const now = Date.now();
			for (const issued of state.pending.values()) {
				if (now - issued >= ` + refLease + `) {
					report([document.body]);
					return;
				}
			}
		}, ` + refLease + `);
	};

	if (document.body) {
		start();
	} else {
		document.addEventListener('DOMContentLoaded', start, { once: true });
	}
})();`

// playwrightWriteExpr takes [ref, name, value] as its single argument
const playwrightWriteExpr = `(args) => (` + writeFn + `)(args[0], args[1], args[2])`

// pollScript is the WebDriver body that returns a batch or null
const pollScript = `const collect = ` + collectFn + `;
return document.body ? collect([document.body]) : null;`

// seleniumWriteScript is the WebDriver body taking ref, name, value arguments
const seleniumWriteScript = `return (` + writeFn + `).apply(null, arguments);`

// generatedSelector matches elements carrying a generated identifier
const generatedSelector = `[` + entities.IdentifierAttribute + `^="` + identifier.Prefix + `"]`

// listExpr returns the generated identifiers in document order
const listExpr = `() => Array.from(document.querySelectorAll('` + generatedSelector + `'), (el) => el.getAttribute('` + entities.IdentifierAttribute + `'))`
