package scanning

// documentScanPrompt is the shared prompt used by all LLM providers for extracting documents
const documentScanPrompt = `You are analyzing a receipt or invoice document. Carefully read all text in the image.

First decide whether the document is a "receipt" (shop name, item lines, subtotal/tax/total, payment method, "thank you") or an "invoice" (the word INVOICE, BILL TO, invoice number, due date, amount due, payment terms).

For a receipt return ONLY this JSON object:
{
  "DocumentType": "receipt",
  "Title": "store or business name",
  "OrderId": "order, receipt or transaction number",
  "Date": "date and time exactly as printed",
  "Address": "store address exactly as printed",
  "Item": "every item line as printed, joined with spaces: name quantity price",
  "Subtotal": "subtotal as printed",
  "Tax": "tax as printed",
  "TotalPrice": "total as printed"
}

For an invoice return ONLY this JSON object:
{
  "DocumentType": "invoice",
  "invoice_number": "",
  "invoice_date": "",
  "due_date": "",
  "supplier_name": "",
  "supplier_address": "",
  "customer_name": "",
  "customer_address": "",
  "item_description": "every item line as printed: name quantity price",
  "item_quantity": "",
  "item_unit_price": "",
  "item_total_price": "",
  "invoice_subtotal": "",
  "tax_rate": "",
  "tax_amount": "",
  "invoice_total": ""
}

Important:
- Every value must be a string copied from the document; do not reformat dates or amounts
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
