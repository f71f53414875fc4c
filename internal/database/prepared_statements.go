package database

// CQL des chemins chauds commandes/produits.
// gocql prépare et met en cache les statements automatiquement — on centralise
// ici le texte des requêtes pour que repository et handlers partagent les mêmes.
const (
	StmtInsertOrder = `INSERT INTO orders (order_id, customer_name, customer_email, customer_phone, delivery_address, delivery_method, payment_method, total_price, status, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	StmtInsertOrderItem = `INSERT INTO order_items (order_id, item_id, product_id, product_name, product_price, quantity, size, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	StmtInsertOrderRef = `INSERT INTO orders_by_ref (order_ref, order_id) VALUES (?, ?)`

	StmtDeleteOrder      = `DELETE FROM orders WHERE order_id = ?`
	StmtDeleteOrderItems = `DELETE FROM order_items WHERE order_id = ?`
	StmtDeleteOrderRef   = `DELETE FROM orders_by_ref WHERE order_ref = ? AND order_id = ?`

	StmtGetOrder = `SELECT order_id, customer_name, customer_email, customer_phone, delivery_address, delivery_method, payment_method, total_price, status, comment, created_at, updated_at
		FROM orders WHERE order_id = ?`

	StmtGetOrderItems = `SELECT order_id, item_id, product_id, product_name, product_price, quantity, size, color
		FROM order_items WHERE order_id = ?`

	StmtGetOrderIDsByRef = `SELECT order_id FROM orders_by_ref WHERE order_ref = ?`

	StmtGetOrderStatus = `SELECT status, comment FROM orders WHERE order_id = ?`

	StmtTransitionStatus = `UPDATE orders SET status = ?, comment = ?, updated_at = ? WHERE order_id = ? IF status = ?`

	StmtGetProductPrice = `SELECT product_id, name, price FROM products WHERE product_id = ?`
)
